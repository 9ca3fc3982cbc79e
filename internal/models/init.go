package models

import (
	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// defaultRate 默认费率条目
type defaultRate struct {
	channel string
	vip     int
	rate    string
}

// 默认费率表：VIP 等级越高费率越低
var defaultRates = []defaultRate{
	{constants.PaymentChannelAlipay, 0, "0.0060"},
	{constants.PaymentChannelAlipay, 1, "0.0055"},
	{constants.PaymentChannelAlipay, 2, "0.0050"},
	{constants.PaymentChannelAlipay, 3, "0.0045"},
	{constants.PaymentChannelWechat, 0, "0.0060"},
	{constants.PaymentChannelWechat, 1, "0.0055"},
	{constants.PaymentChannelWechat, 2, "0.0050"},
	{constants.PaymentChannelWechat, 3, "0.0045"},
}

// SeedDefaultRates 初始化默认费率配置（已有数据则跳过）
func SeedDefaultRates() error {
	return SeedDefaultRatesOn(DB)
}

// SeedDefaultRatesOn 在指定连接上初始化默认费率配置
func SeedDefaultRatesOn(db *gorm.DB) error {
	var count int64
	if err := db.Model(&RateConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	configs := make([]RateConfig, 0, len(defaultRates))
	for _, r := range defaultRates {
		configs = append(configs, RateConfig{
			Channel:        r.channel,
			VIPLevel:       r.vip,
			RatePercentage: decimal.RequireFromString(r.rate),
			MinAmount:      NewMoneyFromFloat(1),
			MaxAmount:      NewMoneyFromFloat(500000),
			IsActive:       true,
		})
	}
	if err := db.Create(&configs).Error; err != nil {
		return err
	}
	logger.Infow("default_rates_seeded", "count", len(configs))
	return nil
}

// InitDefaultAdmins 初始化初始管理员（幂等）
func InitDefaultAdmins(userIDs []int64) error {
	for _, uid := range userIDs {
		if uid == 0 {
			continue
		}
		var count int64
		if err := DB.Model(&Admin{}).Where("user_id = ?", uid).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		admin := Admin{
			UserID: uid,
			Role:   constants.AdminRoleAdmin,
			Status: constants.UserStatusActive,
		}
		if err := DB.Create(&admin).Error; err != nil {
			return err
		}
		logger.Infow("default_admin_created", "user_id", uid)
	}
	return nil
}
