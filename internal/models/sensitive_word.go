package models

import (
	"time"
)

// SensitiveWord 敏感词表（group_id 为空表示全局生效）
type SensitiveWord struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                  // 主键
	GroupID   *int64    `gorm:"index" json:"group_id,omitempty"`                       // 所属群组（空=全局）
	Word      string    `gorm:"type:varchar(255);not null;index" json:"word"`          // 敏感词
	Action    string    `gorm:"type:varchar(20);not null;default:'warn'" json:"action"` // 触发动作
	AddedBy   int64     `json:"added_by"`                                              // 添加人
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`                // 是否启用
	CreatedAt time.Time `json:"created_at"`                                            // 创建时间
}

// TableName 指定表名
func (SensitiveWord) TableName() string {
	return "sensitive_words"
}
