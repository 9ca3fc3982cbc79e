package models

import (
	"encoding/json"
	"time"
)

// VerificationQuestion 验证题库表（group_id 为空表示全局题目）
type VerificationQuestion struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                    // 主键
	GroupID       *int64    `gorm:"index" json:"group_id,omitempty"`                         // 所属群组（空=全局）
	QuestionText  string    `gorm:"type:text;not null" json:"question_text"`                 // 题干
	QuestionType  string    `gorm:"type:varchar(20);not null" json:"question_type"`          // 题型（fill_blank/single_choice/true_false）
	CorrectAnswer string    `gorm:"type:text;not null" json:"correct_answer"`                // 正确答案（竖线分隔多个备选）
	Options       string    `gorm:"type:text" json:"options"`                                // 选项（JSON 数组，仅选择题）
	Difficulty    string    `gorm:"type:varchar(10);default:'medium'" json:"difficulty"`     // 难度
	Hint          string    `gorm:"type:text" json:"hint"`                                   // 提示
	MaxAttempts   int       `gorm:"not null;default:3" json:"max_attempts"`                  // 最大尝试次数
	TimeLimit     int       `gorm:"not null;default:300" json:"time_limit"`                  // 答题时限（秒）
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`            // 是否启用
	CreatedAt     time.Time `json:"created_at"`                                              // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (VerificationQuestion) TableName() string {
	return "verification_questions"
}

// OptionList 解析选项 JSON，解析失败返回 nil
func (q *VerificationQuestion) OptionList() []string {
	if q == nil || q.Options == "" {
		return nil
	}
	var options []string
	if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
		return nil
	}
	return options
}
