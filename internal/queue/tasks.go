package queue

import (
	"encoding/json"

	"github.com/wushipay/wushipay/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskVerificationSweep 过期验证清理任务
	TaskVerificationSweep = constants.TaskVerificationSweep
	// TaskTransactionExpire 过期交易取消任务
	TaskTransactionExpire = constants.TaskTransactionExpire
	// TaskRankingSnapshot 月度排行重算任务
	TaskRankingSnapshot = constants.TaskRankingSnapshot
)

// VerificationSweepPayload 过期验证清理任务载荷
type VerificationSweepPayload struct {
	RequestedAt int64 `json:"requested_at"`
}

// TransactionExpirePayload 过期交易取消任务载荷
type TransactionExpirePayload struct {
	RequestedAt int64 `json:"requested_at"`
}

// RankingSnapshotPayload 月度排行重算任务载荷
type RankingSnapshotPayload struct {
	Month string `json:"month"` // 月份（YYYY-MM），空表示当前月
}

// NewVerificationSweepTask 创建过期验证清理任务
func NewVerificationSweepTask(payload VerificationSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVerificationSweep, body), nil
}

// NewTransactionExpireTask 创建过期交易取消任务
func NewTransactionExpireTask(payload TransactionExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransactionExpire, body), nil
}

// NewRankingSnapshotTask 创建月度排行重算任务
func NewRankingSnapshotTask(payload RankingSnapshotPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRankingSnapshot, body), nil
}
