package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/provider"
	"github.com/wushipay/wushipay/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskVerificationSweep, c.handleVerificationSweep)
	mux.HandleFunc(queue.TaskTransactionExpire, c.handleTransactionExpire)
	mux.HandleFunc(queue.TaskRankingSnapshot, c.handleRankingSnapshot)
}

func (c *Consumer) handleVerificationSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.VerificationSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_verification_sweep_unmarshal_failed", "error", err)
		return err
	}
	if c.VerificationService == nil {
		logger.Warnw("worker_verification_sweep_skip_service_nil")
		return nil
	}
	if _, err := c.VerificationService.SweepExpiredRecords(time.Now()); err != nil {
		logger.Warnw("worker_verification_sweep_failed", "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleTransactionExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.TransactionExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_transaction_expire_unmarshal_failed", "error", err)
		return err
	}
	if c.TransactionService == nil {
		logger.Warnw("worker_transaction_expire_skip_service_nil")
		return nil
	}
	if _, err := c.TransactionService.ExpirePendingTransactions(time.Now()); err != nil {
		logger.Warnw("worker_transaction_expire_failed", "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleRankingSnapshot(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.RankingSnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_ranking_snapshot_unmarshal_failed", "error", err)
		return err
	}
	if c.RankingService == nil {
		logger.Warnw("worker_ranking_snapshot_skip_service_nil")
		return nil
	}
	if _, err := c.RankingService.RecomputeMonthlyRanking(payload.Month); err != nil {
		logger.Warnw("worker_ranking_snapshot_failed", "month", payload.Month, "error", err)
		return err
	}
	return nil
}
