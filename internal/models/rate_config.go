package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateConfig 费率配置表（按渠道 + VIP 等级）
// 费率保留 4 位小数，不能用 Money（Money 固定 2 位）。
type RateConfig struct {
	ID             uint            `gorm:"primarykey" json:"id"`                                                        // 主键
	Channel        string          `gorm:"type:varchar(20);not null;index:idx_rate_configs_channel_vip" json:"channel"` // 支付渠道
	VIPLevel       int             `gorm:"column:vip_level;not null;default:0;index:idx_rate_configs_channel_vip" json:"vip_level"` // VIP 等级
	RatePercentage decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"rate_percentage"`                           // 费率（小数，如 0.0060）
	MinAmount      Money           `gorm:"type:decimal(15,2);not null;default:1" json:"min_amount"`                     // 最小金额
	MaxAmount      Money           `gorm:"type:decimal(15,2);not null;default:500000" json:"max_amount"`                // 最大金额
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`                                      // 是否启用
	CreatedAt      time.Time       `json:"created_at"`                                                                  // 创建时间
	UpdatedAt      time.Time       `json:"updated_at"`                                                                  // 更新时间
}

// TableName 指定表名
func (RateConfig) TableName() string {
	return "rate_configs"
}
