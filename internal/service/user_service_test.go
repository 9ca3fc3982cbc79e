package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserServiceTest(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:user_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Transaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewUserService(repository.NewUserRepository(db)), db
}

func TestUpsertUserCreatesThenRefreshes(t *testing.T) {
	svc, _ := setupUserServiceTest(t)

	user, err := svc.UpsertUser(UserProfile{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("UpsertUser error: %v", err)
	}
	if user.Status != constants.UserStatusActive {
		t.Fatalf("expected active status, got %s", user.Status)
	}

	// 改名后刷新资料，但统计保持不变
	if err := svc.SetVIPLevel(1, 2); err != nil {
		t.Fatalf("SetVIPLevel error: %v", err)
	}
	refreshed, err := svc.UpsertUser(UserProfile{UserID: 1, Username: "alice_new"})
	if err != nil {
		t.Fatalf("second UpsertUser error: %v", err)
	}
	if refreshed.Username != "alice_new" {
		t.Fatalf("expected refreshed username, got %s", refreshed.Username)
	}
	if refreshed.VIPLevel != 2 {
		t.Fatalf("expected vip level kept at 2, got %d", refreshed.VIPLevel)
	}
}

func TestUserVIPLevelColumn(t *testing.T) {
	// UpdateVIPLevel 按 vip_level 裸 SQL 更新，迁移出的列名必须一致
	svc, db := setupUserServiceTest(t)

	if !db.Migrator().HasColumn(&models.User{}, "vip_level") {
		t.Fatalf("expected users.vip_level column after migration")
	}

	if _, err := svc.UpsertUser(UserProfile{UserID: 1}); err != nil {
		t.Fatalf("UpsertUser error: %v", err)
	}
	if err := svc.SetVIPLevel(1, 1); err != nil {
		t.Fatalf("SetVIPLevel error: %v", err)
	}
	var vipLevel int
	if err := db.Raw("SELECT vip_level FROM users WHERE user_id = ?", 1).Scan(&vipLevel).Error; err != nil {
		t.Fatalf("raw vip_level query failed: %v", err)
	}
	if vipLevel != 1 {
		t.Fatalf("expected vip_level 1, got %d", vipLevel)
	}
}

func TestSetVIPLevelClamps(t *testing.T) {
	svc, _ := setupUserServiceTest(t)

	if _, err := svc.UpsertUser(UserProfile{UserID: 1}); err != nil {
		t.Fatalf("UpsertUser error: %v", err)
	}
	if err := svc.SetVIPLevel(1, 99); err != nil {
		t.Fatalf("SetVIPLevel error: %v", err)
	}
	user, err := svc.GetUser(1)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if user.VIPLevel != constants.VIPLevelMax {
		t.Fatalf("expected vip clamped to %d, got %d", constants.VIPLevelMax, user.VIPLevel)
	}
}

func TestSetStatusBlockUnblock(t *testing.T) {
	svc, _ := setupUserServiceTest(t)

	if _, err := svc.UpsertUser(UserProfile{UserID: 1}); err != nil {
		t.Fatalf("UpsertUser error: %v", err)
	}
	if err := svc.SetStatus(1, constants.UserStatusBlocked); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	user, err := svc.GetUser(1)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if user.Status != constants.UserStatusBlocked {
		t.Fatalf("expected blocked, got %s", user.Status)
	}

	if err := svc.SetStatus(99, constants.UserStatusBlocked); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}
