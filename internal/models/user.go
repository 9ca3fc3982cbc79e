package models

import (
	"time"
)

// User 用户表（user_id 为外部平台分配的唯一标识）
type User struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                    // 主键
	UserID            int64     `gorm:"uniqueIndex;not null" json:"user_id"`                     // 平台用户ID
	Username          string    `gorm:"type:varchar(255);index" json:"username"`                 // 用户名
	FirstName         string    `gorm:"type:varchar(255)" json:"first_name"`                     // 名
	LastName          string    `gorm:"type:varchar(255)" json:"last_name"`                      // 姓
	LanguageCode      string    `gorm:"type:varchar(10)" json:"language_code"`                   // 语言代码
	IsPremium         bool      `gorm:"default:false" json:"is_premium"`                         // 是否高级用户
	VIPLevel          int       `gorm:"column:vip_level;not null;default:0" json:"vip_level"`    // VIP 等级（0-3）
	TotalTransactions int64     `gorm:"not null;default:0" json:"total_transactions"`            // 累计成交笔数
	TotalAmount       Money     `gorm:"type:decimal(15,2);not null;default:0" json:"total_amount"` // 累计成交金额
	Status            string    `gorm:"type:varchar(20);default:'active';index" json:"status"`   // 账号状态
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                              // 更新时间
	LastActiveAt      time.Time `json:"last_active_at"`                                          // 最后活跃时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
