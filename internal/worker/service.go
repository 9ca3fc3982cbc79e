package worker

import (
	"context"
	"errors"
	"time"

	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	maintenanceSweepInterval = time.Minute
	rankingRecomputeInterval = time.Hour
)

// Service 异步队列服务。
// 除消费队列任务外，内置两个定时器：每分钟派发过期验证与过期交易清理任务，
// 每小时派发当月排行重算任务；客户端不可用时退化为直接调用服务。
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	go s.runMaintenanceLoop(ctx)
	go s.runRankingLoop(ctx)
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runMaintenanceLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	runOnce := func() {
		now := time.Now()
		if client := s.consumer.QueueClient; client.Enabled() {
			if err := client.EnqueueVerificationSweep(queue.VerificationSweepPayload{RequestedAt: now.Unix()}); err != nil {
				logger.Warnw("worker_verification_sweep_enqueue_failed", "error", err)
			}
			if err := client.EnqueueTransactionExpire(queue.TransactionExpirePayload{RequestedAt: now.Unix()}); err != nil {
				logger.Warnw("worker_transaction_expire_enqueue_failed", "error", err)
			}
			return
		}
		if s.consumer.VerificationService != nil {
			if _, err := s.consumer.VerificationService.SweepExpiredRecords(now); err != nil {
				logger.Warnw("worker_verification_sweep_loop_failed", "error", err)
			}
		}
		if s.consumer.TransactionService != nil {
			if _, err := s.consumer.TransactionService.ExpirePendingTransactions(now); err != nil {
				logger.Warnw("worker_transaction_expire_loop_failed", "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(maintenanceSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) runRankingLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.RankingService == nil {
		return
	}
	runOnce := func() {
		if client := s.consumer.QueueClient; client.Enabled() {
			if err := client.EnqueueRankingSnapshot(queue.RankingSnapshotPayload{}); err != nil {
				logger.Warnw("worker_ranking_snapshot_enqueue_failed", "error", err)
			}
			return
		}
		if _, err := s.consumer.RankingService.RecomputeMonthlyRanking(""); err != nil {
			logger.Warnw("worker_ranking_recompute_loop_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(rankingRecomputeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
