package models

import (
	"time"
)

// LotteryEntry 抽奖结果表（只增不改）
type LotteryEntry struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                      // 主键
	UserID      int64     `gorm:"not null;index" json:"user_id"`                             // 平台用户ID
	PrizeLevel  int       `gorm:"not null" json:"prize_level"`                               // 奖项等级（1-4）
	PrizeAmount Money     `gorm:"type:decimal(15,2);not null" json:"prize_amount"`           // 奖金金额
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // 发放状态
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
}

// TableName 指定表名
func (LotteryEntry) TableName() string {
	return "lottery_entries"
}
