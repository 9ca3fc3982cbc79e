package models

import (
	"time"
)

// VerificationConfig 群验证配置表
type VerificationConfig struct {
	ID                    uint      `gorm:"primarykey" json:"id"`                                          // 主键
	GroupID               int64     `gorm:"uniqueIndex;not null" json:"group_id"`                          // 平台群组ID
	VerificationMode      string    `gorm:"type:varchar(20);not null;default:'question'" json:"verification_mode"` // 验证模式
	AutoApproveThreshold  int       `gorm:"not null;default:80" json:"auto_approve_threshold"`             // 自动通过分数线
	QuestionThresholdMin  int       `gorm:"not null;default:60" json:"question_threshold_min"`             // 转人工下限
	QuestionThresholdMax  int       `gorm:"not null;default:80" json:"question_threshold_max"`             // 转人工上限
	WelcomeMessage        string    `gorm:"type:text" json:"welcome_message"`                              // 通过后的欢迎语
	CreatedAt             time.Time `json:"created_at"`                                                    // 创建时间
	UpdatedAt             time.Time `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (VerificationConfig) TableName() string {
	return "verification_configs"
}
