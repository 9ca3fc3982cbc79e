package service

import (
	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"

	"github.com/shopspring/decimal"
)

// 默认费率（查不到配置时回退使用）
var defaultFeeRate = decimal.RequireFromString("0.0060")

// CalculatorService 费率计算服务
type CalculatorService struct {
	rateRepo repository.RateRepository
}

// NewCalculatorService 创建费率计算服务
func NewCalculatorService(rateRepo repository.RateRepository) *CalculatorService {
	return &CalculatorService{rateRepo: rateRepo}
}

// FeeResult 手续费计算结果
type FeeResult struct {
	Amount       models.Money    `json:"amount"`        // 交易金额
	Channel      string          `json:"channel"`       // 支付渠道
	VIPLevel     int             `json:"vip_level"`     // VIP 等级
	Rate         decimal.Decimal `json:"rate"`          // 适用费率
	Fee          models.Money    `json:"fee"`           // 手续费
	ActualAmount models.Money    `json:"actual_amount"` // 实际到账
}

// CalculateFee 计算手续费与实际到账金额。
// 金额保留 2 位小数，四舍五入远离零；fee + actual 恒等于 amount。
func (s *CalculatorService) CalculateFee(amount decimal.Decimal, channel string, vipLevel int) (*FeeResult, error) {
	if !constants.IsValidPaymentChannel(channel) {
		return nil, ErrInvalidPaymentChannel
	}

	rate, err := s.resolveRate(channel, vipLevel)
	if err != nil {
		return nil, err
	}

	rounded := amount.Round(2)
	fee := rounded.Mul(rate).Round(2)
	actual := rounded.Sub(fee)

	return &FeeResult{
		Amount:       models.NewMoneyFromDecimal(rounded),
		Channel:      channel,
		VIPLevel:     vipLevel,
		Rate:         rate,
		Fee:          models.NewMoneyFromDecimal(fee),
		ActualAmount: models.NewMoneyFromDecimal(actual),
	}, nil
}

// ValidateAmount 校验金额是否落在该渠道配置的上下限内
func (s *CalculatorService) ValidateAmount(amount decimal.Decimal, channel string, vipLevel int) error {
	if !constants.IsValidPaymentChannel(channel) {
		return ErrInvalidPaymentChannel
	}
	config, err := s.rateRepo.GetActiveRate(channel, vipLevel)
	if err != nil {
		return err
	}
	if config == nil {
		// 无配置时不做上下限约束
		return nil
	}
	if amount.LessThan(config.MinAmount.Decimal) || amount.GreaterThan(config.MaxAmount.Decimal) {
		return ErrAmountOutOfRange
	}
	return nil
}

// ConversionResult 汇率换算结果
type ConversionResult struct {
	OriginalAmount  models.Money    `json:"original_amount"`  // 原始金额
	FromCurrency    string          `json:"from_currency"`    // 源币种
	ToCurrency      string          `json:"to_currency"`      // 目标币种
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`    // 汇率
	ConvertedAmount models.Money    `json:"converted_amount"` // 换算结果
}

// ConvertCurrency 按给定汇率换算币种
func (s *CalculatorService) ConvertCurrency(amount decimal.Decimal, fromCurrency, toCurrency string, rate decimal.Decimal) *ConversionResult {
	converted := amount.Mul(rate).Round(2)
	return &ConversionResult{
		OriginalAmount:  models.NewMoneyFromDecimal(amount),
		FromCurrency:    fromCurrency,
		ToCurrency:      toCurrency,
		ExchangeRate:    rate,
		ConvertedAmount: models.NewMoneyFromDecimal(converted),
	}
}

func (s *CalculatorService) resolveRate(channel string, vipLevel int) (decimal.Decimal, error) {
	config, err := s.rateRepo.GetActiveRate(channel, vipLevel)
	if err != nil {
		return decimal.Zero, err
	}
	if config == nil {
		return defaultFeeRate, nil
	}
	return config.RatePercentage, nil
}
