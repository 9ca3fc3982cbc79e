package app

import (
	"context"
	"errors"
	"time"

	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/provider"
)

const (
	sweeperInterval        = time.Minute
	sweeperRankingInterval = time.Hour
)

// SweeperService 单机巡检服务。
// 队列未启用时顶替 worker 执行后台清理：过期验证、过期交易与排行重算。
type SweeperService struct {
	container *provider.Container
}

// NewSweeperService 创建单机巡检服务
func NewSweeperService(container *provider.Container) *SweeperService {
	return &SweeperService{container: container}
}

// Name 服务名称
func (s *SweeperService) Name() string {
	return "sweeper"
}

// Start 启动巡检循环，阻塞到 ctx 结束
func (s *SweeperService) Start(ctx context.Context) error {
	if s == nil || s.container == nil {
		return errors.New("sweeper not initialized")
	}

	sweep := func() {
		if s.container.VerificationService != nil {
			if _, err := s.container.VerificationService.SweepExpiredRecords(time.Now()); err != nil {
				logger.Warnw("sweeper_verification_failed", "error", err)
			}
		}
		if s.container.TransactionService != nil {
			if _, err := s.container.TransactionService.ExpirePendingTransactions(time.Now()); err != nil {
				logger.Warnw("sweeper_transaction_failed", "error", err)
			}
		}
	}
	recompute := func() {
		if s.container.RankingService != nil {
			if _, err := s.container.RankingService.RecomputeMonthlyRanking(""); err != nil {
				logger.Warnw("sweeper_ranking_failed", "error", err)
			}
		}
	}
	sweep()
	recompute()

	sweepTicker := time.NewTicker(sweeperInterval)
	defer sweepTicker.Stop()
	rankingTicker := time.NewTicker(sweeperRankingInterval)
	defer rankingTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sweepTicker.C:
			sweep()
		case <-rankingTicker.C:
			recompute()
		}
	}
}

// Stop 停止服务
func (s *SweeperService) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}
