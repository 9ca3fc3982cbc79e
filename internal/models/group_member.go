package models

import (
	"time"
)

// GroupMember 群成员表（历史记录，不做物理删除）
type GroupMember struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                                        // 主键
	GroupID    int64      `gorm:"not null;index;index:idx_group_members_unique,unique" json:"group_id"`        // 平台群组ID
	UserID     int64      `gorm:"not null;index;index:idx_group_members_unique,unique" json:"user_id"`         // 平台用户ID
	Status     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`             // 成员状态
	JoinedAt   time.Time  `json:"joined_at"`                                                                   // 入群时间
	VerifiedAt *time.Time `json:"verified_at,omitempty"`                                                       // 通过验证时间
}

// TableName 指定表名
func (GroupMember) TableName() string {
	return "group_members"
}
