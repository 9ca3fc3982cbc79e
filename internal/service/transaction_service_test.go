package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTransactionServiceTest(t *testing.T) (*TransactionService, *ReferralService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:transaction_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Transaction{}, &models.RateConfig{},
		&models.ReferralCode{}, &models.Referral{}, &models.ReferralReward{}, &models.LotteryEntry{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if err := models.SeedDefaultRatesOn(db); err != nil {
		t.Fatalf("seed rates failed: %v", err)
	}

	calculator := NewCalculatorService(repository.NewRateRepository(db))
	referral := NewReferralService(repository.NewReferralRepository(db), referralTestConfig())
	svc := NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewUserRepository(db),
		calculator,
		referral,
		config.TransactionConfig{ExpireMinutes: 30},
	)
	return svc, referral, db
}

func seedTransactionUser(t *testing.T, db *gorm.DB, userID int64) {
	t.Helper()
	user := &models.User{
		UserID:       userID,
		Username:     fmt.Sprintf("user_%d", userID),
		Status:       constants.UserStatusActive,
		LastActiveAt: time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
}

func TestCreateTransaction(t *testing.T) {
	svc, _, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)

	txn, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateTransaction error: %v", err)
	}
	if !strings.HasPrefix(txn.OrderID, "WS") {
		t.Fatalf("expected WS order prefix, got %s", txn.OrderID)
	}
	if txn.Status != constants.TransactionStatusPending {
		t.Fatalf("expected pending status, got %s", txn.Status)
	}
	if txn.Fee.String() != "6.00" || txn.ActualAmount.String() != "994.00" {
		t.Fatalf("unexpected fee/actual: %s / %s", txn.Fee.String(), txn.ActualAmount.String())
	}
	if !txn.ExpiredAt.After(time.Now().Add(25 * time.Minute)) {
		t.Fatalf("expected ~30min expiry, got %v", txn.ExpiredAt)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)

	if _, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: "gift",
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(100),
	}); !errors.Is(err, ErrInvalidTransactionType) {
		t.Fatalf("expected ErrInvalidTransactionType, got %v", err)
	}

	if _, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.RequireFromString("0.5"),
	}); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected ErrAmountOutOfRange, got %v", err)
	}

	if _, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          99,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(100),
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestCreateTransactionBlockedUser(t *testing.T) {
	svc, _, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)
	if err := db.Model(&models.User{}).Where("user_id = ?", 1).
		Update("status", constants.UserStatusBlocked).Error; err != nil {
		t.Fatalf("block user failed: %v", err)
	}

	if _, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(100),
	}); !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("expected ErrUserBlocked, got %v", err)
	}
}

func TestMarkPaidIdempotent(t *testing.T) {
	svc, _, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)

	txn, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateTransaction error: %v", err)
	}

	paid, err := svc.MarkPaid(txn.OrderID)
	if err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}
	if paid.Status != constants.TransactionStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid with paid_at, got %+v", paid)
	}

	// 重复标记幂等，统计不重复累加
	if _, err := svc.MarkPaid(txn.OrderID); err != nil {
		t.Fatalf("second MarkPaid error: %v", err)
	}

	var user models.User
	if err := db.Where("user_id = ?", 1).First(&user).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.TotalTransactions != 1 {
		t.Fatalf("expected total_transactions 1, got %d", user.TotalTransactions)
	}
	if user.TotalAmount.String() != "1000.00" {
		t.Fatalf("expected total_amount 1000.00, got %s", user.TotalAmount.String())
	}
}

func TestMarkPaidTriggersFirstPaidRewards(t *testing.T) {
	svc, referral, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)
	seedTransactionUser(t, db, 2)

	if _, err := referral.GetOrCreateReferralCode(1); err != nil {
		t.Fatalf("create code error: %v", err)
	}
	if _, err := referral.CreateReferral("WSP1", 2); err != nil {
		t.Fatalf("CreateReferral error: %v", err)
	}

	txn, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          2,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateTransaction error: %v", err)
	}
	if _, err := svc.MarkPaid(txn.OrderID); err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}

	// 邀请人获得固定奖励 + 分红
	code, err := referral.GetOrCreateReferralCode(1)
	if err != nil {
		t.Fatalf("reload code error: %v", err)
	}
	if code.SuccessfulInvites != 1 || code.TotalRewards.String() != "20.00" {
		t.Fatalf("unexpected referrer stats: invites=%d rewards=%s",
			code.SuccessfulInvites, code.TotalRewards.String())
	}

	// 新用户拿到首笔交易红包
	var bonus models.ReferralReward
	if err := db.Where("user_id = ? AND reward_type = ?", 2, constants.RewardTypeNewUserBonus).
		First(&bonus).Error; err != nil {
		t.Fatalf("load new user bonus failed: %v", err)
	}
	if bonus.Amount.String() != "5.00" {
		t.Fatalf("expected bonus 5.00, got %s", bonus.Amount.String())
	}

	// 第二笔交易不再触发
	second, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          2,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("second CreateTransaction error: %v", err)
	}
	if _, err := svc.MarkPaid(second.OrderID); err != nil {
		t.Fatalf("second MarkPaid error: %v", err)
	}
	var bonusCount int64
	if err := db.Model(&models.ReferralReward{}).
		Where("user_id = ? AND reward_type = ?", 2, constants.RewardTypeNewUserBonus).
		Count(&bonusCount).Error; err != nil {
		t.Fatalf("count bonus failed: %v", err)
	}
	if bonusCount != 1 {
		t.Fatalf("expected 1 bonus entry, got %d", bonusCount)
	}
}

func TestMarkPaidExpired(t *testing.T) {
	svc, _, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)

	txn, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("CreateTransaction error: %v", err)
	}
	if err := db.Model(&models.Transaction{}).Where("order_id = ?", txn.OrderID).
		Update("expired_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("backdate expiry failed: %v", err)
	}

	if _, err := svc.MarkPaid(txn.OrderID); !errors.Is(err, ErrTransactionExpired) {
		t.Fatalf("expected ErrTransactionExpired, got %v", err)
	}

	reloaded, err := svc.GetTransaction(txn.OrderID)
	if err != nil {
		t.Fatalf("GetTransaction error: %v", err)
	}
	if reloaded.Status != constants.TransactionStatusCancelled {
		t.Fatalf("expected cancelled, got %s", reloaded.Status)
	}
}

func TestTransactionStateMachine(t *testing.T) {
	svc, _, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)

	txn, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelWechat,
		Amount:          decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("CreateTransaction error: %v", err)
	}

	// 未支付不能退款
	if err := svc.Refund(txn.OrderID); !errors.Is(err, ErrTransactionStateInvalid) {
		t.Fatalf("expected ErrTransactionStateInvalid, got %v", err)
	}

	if _, err := svc.MarkPaid(txn.OrderID); err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}

	// 已支付不能取消
	if err := svc.Cancel(txn.OrderID); !errors.Is(err, ErrTransactionStateInvalid) {
		t.Fatalf("expected ErrTransactionStateInvalid on cancel, got %v", err)
	}

	if err := svc.Refund(txn.OrderID); err != nil {
		t.Fatalf("Refund error: %v", err)
	}
	reloaded, err := svc.GetTransaction(txn.OrderID)
	if err != nil {
		t.Fatalf("GetTransaction error: %v", err)
	}
	if reloaded.Status != constants.TransactionStatusRefunded {
		t.Fatalf("expected refunded, got %s", reloaded.Status)
	}
}

func TestExpirePendingTransactions(t *testing.T) {
	svc, _, db := setupTransactionServiceTest(t)
	seedTransactionUser(t, db, 1)

	stale, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("CreateTransaction error: %v", err)
	}
	fresh, err := svc.CreateTransaction(CreateTransactionInput{
		UserID:          1,
		TransactionType: constants.TransactionTypeReceive,
		PaymentChannel:  constants.PaymentChannelAlipay,
		Amount:          decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("CreateTransaction error: %v", err)
	}
	if err := db.Model(&models.Transaction{}).Where("order_id = ?", stale.OrderID).
		Update("expired_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("backdate expiry failed: %v", err)
	}

	expired, err := svc.ExpirePendingTransactions(time.Now())
	if err != nil {
		t.Fatalf("ExpirePendingTransactions error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired, got %d", expired)
	}

	freshReloaded, err := svc.GetTransaction(fresh.OrderID)
	if err != nil {
		t.Fatalf("GetTransaction error: %v", err)
	}
	if freshReloaded.Status != constants.TransactionStatusPending {
		t.Fatalf("expected fresh txn still pending, got %s", freshReloaded.Status)
	}
}
