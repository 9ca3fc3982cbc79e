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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCalculatorServiceTest(t *testing.T) (*CalculatorService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:calculator_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RateConfig{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if err := models.SeedDefaultRatesOn(db); err != nil {
		t.Fatalf("seed rates failed: %v", err)
	}
	return NewCalculatorService(repository.NewRateRepository(db)), db
}

func TestRateConfigVIPLevelColumn(t *testing.T) {
	// 仓储按 vip_level 裸 SQL 过滤，迁移出的列名必须一致
	_, db := setupCalculatorServiceTest(t)

	if !db.Migrator().HasColumn(&models.RateConfig{}, "vip_level") {
		t.Fatalf("expected rate_configs.vip_level column after migration")
	}

	rate, err := repository.NewRateRepository(db).GetActiveRate(constants.PaymentChannelAlipay, 0)
	if err != nil {
		t.Fatalf("GetActiveRate error: %v", err)
	}
	if rate == nil || !rate.RatePercentage.Equal(decimal.RequireFromString("0.0060")) {
		t.Fatalf("unexpected rate for alipay vip0: %+v", rate)
	}
}

func TestCalculateFeeVIP0(t *testing.T) {
	svc, _ := setupCalculatorServiceTest(t)

	result, err := svc.CalculateFee(decimal.NewFromInt(1000), constants.PaymentChannelAlipay, 0)
	if err != nil {
		t.Fatalf("CalculateFee error: %v", err)
	}
	if result.Fee.String() != "6.00" {
		t.Fatalf("expected fee 6.00, got %s", result.Fee.String())
	}
	if result.ActualAmount.String() != "994.00" {
		t.Fatalf("expected actual 994.00, got %s", result.ActualAmount.String())
	}
	if sum := result.Fee.Decimal.Add(result.ActualAmount.Decimal); !sum.Equal(result.Amount.Decimal) {
		t.Fatalf("fee + actual != amount: %s", sum.String())
	}
}

func TestCalculateFeeVIPDiscount(t *testing.T) {
	svc, _ := setupCalculatorServiceTest(t)

	result, err := svc.CalculateFee(decimal.NewFromInt(1000), constants.PaymentChannelWechat, 3)
	if err != nil {
		t.Fatalf("CalculateFee error: %v", err)
	}
	if result.Fee.String() != "4.50" {
		t.Fatalf("expected fee 4.50 for vip3, got %s", result.Fee.String())
	}
}

func TestCalculateFeeRounding(t *testing.T) {
	svc, _ := setupCalculatorServiceTest(t)

	// 123.456 先收敛到 123.46，手续费 0.74
	result, err := svc.CalculateFee(decimal.RequireFromString("123.456"), constants.PaymentChannelAlipay, 0)
	if err != nil {
		t.Fatalf("CalculateFee error: %v", err)
	}
	if result.Amount.String() != "123.46" {
		t.Fatalf("expected amount 123.46, got %s", result.Amount.String())
	}
	if result.Fee.String() != "0.74" {
		t.Fatalf("expected fee 0.74, got %s", result.Fee.String())
	}
	if result.ActualAmount.String() != "122.72" {
		t.Fatalf("expected actual 122.72, got %s", result.ActualAmount.String())
	}
}

func TestCalculateFeeFallbackRate(t *testing.T) {
	svc, db := setupCalculatorServiceTest(t)

	// 停用所有配置后回退默认费率
	if err := db.Model(&models.RateConfig{}).Where("1 = 1").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate rates failed: %v", err)
	}
	result, err := svc.CalculateFee(decimal.NewFromInt(1000), constants.PaymentChannelAlipay, 2)
	if err != nil {
		t.Fatalf("CalculateFee error: %v", err)
	}
	if result.Fee.String() != "6.00" {
		t.Fatalf("expected fallback fee 6.00, got %s", result.Fee.String())
	}
}

func TestCalculateFeeInvalidChannel(t *testing.T) {
	svc, _ := setupCalculatorServiceTest(t)

	if _, err := svc.CalculateFee(decimal.NewFromInt(100), "paypal", 0); !errors.Is(err, ErrInvalidPaymentChannel) {
		t.Fatalf("expected ErrInvalidPaymentChannel, got %v", err)
	}
}

func TestValidateAmountBounds(t *testing.T) {
	svc, _ := setupCalculatorServiceTest(t)

	if err := svc.ValidateAmount(decimal.NewFromInt(100), constants.PaymentChannelAlipay, 0); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}
	if err := svc.ValidateAmount(decimal.RequireFromString("0.5"), constants.PaymentChannelAlipay, 0); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected ErrAmountOutOfRange for low amount, got %v", err)
	}
	if err := svc.ValidateAmount(decimal.NewFromInt(600000), constants.PaymentChannelAlipay, 0); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected ErrAmountOutOfRange for high amount, got %v", err)
	}
}

func TestConvertCurrency(t *testing.T) {
	svc, _ := setupCalculatorServiceTest(t)

	result := svc.ConvertCurrency(decimal.NewFromInt(100), "CNY", "USD", decimal.RequireFromString("0.1382"))
	if result.ConvertedAmount.String() != "13.82" {
		t.Fatalf("expected 13.82, got %s", result.ConvertedAmount.String())
	}
}
