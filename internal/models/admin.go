package models

import (
	"time"
)

// Admin 管理员表
type Admin struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                  // 主键
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`                   // 平台用户ID
	Role      string    `gorm:"type:varchar(20);default:'admin'" json:"role"`          // 角色
	AddedBy   int64     `json:"added_by"`                                              // 添加人
	Status    string    `gorm:"type:varchar(20);default:'active'" json:"status"`       // 状态
	CreatedAt time.Time `json:"created_at"`                                            // 创建时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
