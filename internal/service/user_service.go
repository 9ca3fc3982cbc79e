package service

import (
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"
)

// UserService 用户服务
type UserService struct {
	repo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// UserProfile 用户资料快照
type UserProfile struct {
	UserID       int64  `json:"user_id"`       // 平台用户ID
	Username     string `json:"username"`      // 用户名
	FirstName    string `json:"first_name"`    // 名
	LastName     string `json:"last_name"`     // 姓
	LanguageCode string `json:"language_code"` // 语言代码
	IsPremium    bool   `json:"is_premium"`    // 是否高级用户
}

// UpsertUser 登记或刷新用户。
// 已存在时只刷新资料字段与活跃时间，不重置统计与 VIP。
func (s *UserService) UpsertUser(profile UserProfile) (*models.User, error) {
	now := time.Now()
	user, err := s.repo.GetByUserID(profile.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			UserID:       profile.UserID,
			Username:     profile.Username,
			FirstName:    profile.FirstName,
			LastName:     profile.LastName,
			LanguageCode: profile.LanguageCode,
			IsPremium:    profile.IsPremium,
			Status:       constants.UserStatusActive,
			LastActiveAt: now,
		}
		if err := s.repo.Create(user); err != nil {
			if isUniqueViolation(err) {
				return s.repo.GetByUserID(profile.UserID)
			}
			return nil, err
		}
		logger.Infow("user_registered", "user_id", profile.UserID, "username", profile.Username)
		return user, nil
	}

	if err := s.repo.UpdateProfile(profile.UserID, map[string]interface{}{
		"username":       profile.Username,
		"first_name":     profile.FirstName,
		"last_name":      profile.LastName,
		"language_code":  profile.LanguageCode,
		"is_premium":     profile.IsPremium,
		"last_active_at": now,
		"updated_at":     now,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetByUserID(profile.UserID)
}

// GetUser 按平台ID查询用户
func (s *UserService) GetUser(userID int64) (*models.User, error) {
	user, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetVIPLevel 设置用户 VIP 等级（越界时收敛到边界）
func (s *UserService) SetVIPLevel(userID int64, vipLevel int) error {
	if vipLevel < constants.VIPLevelMin {
		vipLevel = constants.VIPLevelMin
	}
	if vipLevel > constants.VIPLevelMax {
		vipLevel = constants.VIPLevelMax
	}
	user, err := s.repo.GetByUserID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	return s.repo.UpdateVIPLevel(userID, vipLevel)
}

// SetStatus 设置账号状态（封禁/解封）
func (s *UserService) SetStatus(userID int64, status string) error {
	if status != constants.UserStatusActive && status != constants.UserStatusBlocked {
		return ErrNotFound
	}
	user, err := s.repo.GetByUserID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	return s.repo.UpdateProfile(userID, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
}
