package models

import (
	"time"
)

// Transaction 交易表（演示性质，不对接真实支付网关）
type Transaction struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                      // 主键
	UserID          int64      `gorm:"not null;index;index:idx_transactions_user_status" json:"user_id"` // 平台用户ID
	OrderID         string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_id"`     // 订单号
	TransactionType string     `gorm:"type:varchar(20);not null" json:"transaction_type"`         // 交易类型（receive/pay/refund）
	PaymentChannel  string     `gorm:"type:varchar(20);not null;index" json:"payment_channel"`    // 支付渠道（alipay/wechat）
	Amount          Money      `gorm:"type:decimal(15,2);not null" json:"amount"`                 // 交易金额
	Fee             Money      `gorm:"type:decimal(15,2);not null;default:0" json:"fee"`          // 手续费
	ActualAmount    Money      `gorm:"type:decimal(15,2);not null" json:"actual_amount"`          // 实际到账金额
	Currency        string     `gorm:"type:varchar(10);default:'CNY'" json:"currency"`            // 币种
	Status          string     `gorm:"type:varchar(20);not null;index;index:idx_transactions_user_status" json:"status"` // 交易状态
	Description     string     `gorm:"type:text" json:"description"`                              // 备注
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                   // 创建时间
	PaidAt          *time.Time `json:"paid_at,omitempty"`                                         // 支付时间
	ExpiredAt       time.Time  `gorm:"index" json:"expired_at"`                                   // 过期时间
	UpdatedAt       time.Time  `json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}
