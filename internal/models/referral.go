package models

import (
	"time"
)

// ReferralCode 推荐码表（每用户一条，含累计统计）
type ReferralCode struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                      // 主键
	UserID            int64     `gorm:"uniqueIndex;not null" json:"user_id"`                       // 平台用户ID
	ReferralCode      string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"referral_code"` // 推荐码
	TotalInvites      int       `gorm:"not null;default:0" json:"total_invites"`                   // 累计邀请人数
	SuccessfulInvites int       `gorm:"not null;default:0" json:"successful_invites"`              // 成功邀请人数
	TotalRewards      Money     `gorm:"type:decimal(15,2);not null;default:0" json:"total_rewards"` // 累计奖励金额
	LotteryEntries    int       `gorm:"not null;default:0" json:"lottery_entries"`                 // 剩余抽奖次数
	CreatedAt         time.Time `json:"created_at"`                                                // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (ReferralCode) TableName() string {
	return "referral_codes"
}

// Referral 推荐关系表（每个被邀请人至多一条）
type Referral struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                                   // 主键
	ReferrerID         int64      `gorm:"not null;index" json:"referrer_id"`                      // 邀请人
	ReferredID         int64      `gorm:"uniqueIndex;not null" json:"referred_id"`                // 被邀请人
	ReferralCode       string     `gorm:"type:varchar(32);not null" json:"referral_code"`         // 使用的推荐码
	Status             string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // 关系状态
	RewardAmount       Money      `gorm:"type:decimal(15,2);not null;default:0" json:"reward_amount"`      // 奖励金额
	FirstTransactionAt *time.Time `json:"first_transaction_at,omitempty"`                         // 首笔交易时间
	CreatedAt          time.Time  `json:"created_at"`                                             // 创建时间
	UpdatedAt          time.Time  `json:"updated_at"`                                             // 更新时间
}

// TableName 指定表名
func (Referral) TableName() string {
	return "referrals"
}

// ReferralReward 奖励流水表（只增不改）
type ReferralReward struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                        // 主键
	UserID      int64     `gorm:"not null;index" json:"user_id"`                               // 受益人
	RewardType  string    `gorm:"type:varchar(20);not null" json:"reward_type"`                // 奖励类型
	Amount      Money     `gorm:"type:decimal(15,2);not null" json:"amount"`                   // 奖励金额
	ReferralID  *uint     `gorm:"index" json:"referral_id,omitempty"`                          // 关联推荐关系
	Description string    `gorm:"type:varchar(255)" json:"description"`                        // 说明
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`   // 发放状态
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
}

// TableName 指定表名
func (ReferralReward) TableName() string {
	return "referral_rewards"
}
