package models

import (
	"time"
)

// Group 群组表
type Group struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                  // 主键
	GroupID             int64     `gorm:"uniqueIndex;not null" json:"group_id"`                  // 平台群组ID
	GroupTitle          string    `gorm:"type:varchar(255)" json:"group_title"`                  // 群名称
	VerificationEnabled bool      `gorm:"not null;default:false" json:"verification_enabled"`    // 是否开启入群验证
	VerificationType    string    `gorm:"type:varchar(20);default:'none'" json:"verification_type"` // 验证类型
	WelcomeMessage      string    `gorm:"type:text" json:"welcome_message"`                      // 欢迎语
	RulesText           string    `gorm:"type:text" json:"rules_text"`                           // 群规
	CreatedAt           time.Time `json:"created_at"`                                            // 创建时间
	UpdatedAt           time.Time `json:"updated_at"`                                            // 更新时间
}

// TableName 指定表名
func (Group) TableName() string {
	return "groups"
}
