package models

import (
	"time"
)

// MonthlyRanking 月度邀请排行表（按 (user_id, month) 唯一，周期性重算）
type MonthlyRanking struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                                      // 主键
	UserID       int64     `gorm:"not null;index;index:idx_monthly_rankings_unique,unique" json:"user_id"`    // 平台用户ID
	Month        string    `gorm:"type:varchar(7);not null;index;index:idx_monthly_rankings_unique,unique" json:"month"` // 月份（YYYY-MM）
	InviteCount  int       `gorm:"not null;default:0" json:"invite_count"`                                    // 当月邀请数
	Rank         int       `gorm:"not null;default:0" json:"rank"`                                            // 名次
	RewardAmount Money     `gorm:"type:decimal(15,2);not null;default:0" json:"reward_amount"`                // 排行奖励
	Status       string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`                 // 发放状态
	CreatedAt    time.Time `json:"created_at"`                                                                // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                                                // 更新时间
}

// TableName 指定表名
func (MonthlyRanking) TableName() string {
	return "monthly_rankings"
}
