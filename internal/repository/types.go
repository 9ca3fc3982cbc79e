package repository

import "time"

// TransactionListFilter 交易列表过滤条件
type TransactionListFilter struct {
	Page            int
	PageSize        int
	UserID          int64
	TransactionType string
	Status          string
	Channel         string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// QuestionListFilter 验证题目列表过滤条件
type QuestionListFilter struct {
	GroupID    *int64
	Difficulty string
	ActiveOnly bool
	Limit      int
}

// RewardListFilter 奖励流水列表过滤条件
type RewardListFilter struct {
	Page       int
	PageSize   int
	UserID     int64
	RewardType string
	Status     string
}
