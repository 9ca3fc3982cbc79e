package models

import (
	"time"
)

// VerificationRecord 验证记录表（同一 (group,user) 至多一条 pending）
type VerificationRecord struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                             // 主键
	GroupID          int64      `gorm:"not null;index:idx_verification_records_pair" json:"group_id"`     // 平台群组ID
	UserID           int64      `gorm:"not null;index:idx_verification_records_pair" json:"user_id"`      // 平台用户ID
	VerificationType string     `gorm:"type:varchar(20);not null" json:"verification_type"`               // 验证方式
	QuestionID       *uint      `gorm:"index" json:"question_id,omitempty"`                               // 关联题目
	UserAnswer       string     `gorm:"type:text" json:"user_answer"`                                     // 最近一次作答
	IsCorrect        *bool      `json:"is_correct,omitempty"`                                             // 最近一次是否正确
	AttemptCount     int        `gorm:"not null;default:0" json:"attempt_count"`                          // 已尝试次数
	AIScore          *int       `gorm:"column:ai_score" json:"ai_score,omitempty"`                        // AI 评分（ai_score 模式）
	Result           string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"result"`  // 验证结果
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                          // 创建时间（计时起点）
	CompletedAt      *time.Time `json:"completed_at,omitempty"`                                           // 完成时间

	Question *VerificationQuestion `gorm:"foreignKey:QuestionID" json:"question,omitempty"` // 题目信息
}

// TableName 指定表名
func (VerificationRecord) TableName() string {
	return "verification_records"
}
