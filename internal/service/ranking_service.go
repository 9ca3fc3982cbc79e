package service

import (
	"context"
	"sort"
	"time"

	"github.com/wushipay/wushipay/internal/cache"
	"github.com/wushipay/wushipay/internal/config"
	"github.com/wushipay/wushipay/internal/logger"
	"github.com/wushipay/wushipay/internal/models"
	"github.com/wushipay/wushipay/internal/repository"
)

// 默认排行长度
const defaultRankingLimit = 10

// RankingService 月度邀请排行服务。
// 排行从推荐关系重算：按当月成功邀请数降序，同数先达者在前。
type RankingService struct {
	repo         repository.RankingRepository
	referralRepo repository.ReferralRepository
	cfg          config.ReferralConfig
}

// NewRankingService 创建月度排行服务
func NewRankingService(repo repository.RankingRepository, referralRepo repository.ReferralRepository, cfg config.ReferralConfig) *RankingService {
	return &RankingService{
		repo:         repo,
		referralRepo: referralRepo,
		cfg:          cfg,
	}
}

// GetMonthlyRanking 查询月度排行，优先走缓存。
// month 为空时取当前月；缓存未命中时回源数据库。
func (s *RankingService) GetMonthlyRanking(ctx context.Context, month string, limit int) ([]models.MonthlyRanking, error) {
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if limit <= 0 {
		limit = defaultRankingLimit
	}

	if snapshot, hit, err := cache.GetMonthlyRanking(ctx, month); err == nil && hit {
		return snapshotToRankings(snapshot, month, limit), nil
	} else if err != nil {
		logger.Warnw("ranking_cache_read_failed", "month", month, "error", err)
	}

	// 缓存只在重算时写全量快照，读路径不回填，避免截断结果污染缓存
	return s.repo.ListByMonth(month, limit)
}

// RecomputeMonthlyRanking 重算指定月份的排行并落库。
// 邀请数以推荐关系的首笔交易时间归属月份，重算后刷新缓存。
func (s *RankingService) RecomputeMonthlyRanking(month string) (int, error) {
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	from, to, err := monthRange(month)
	if err != nil {
		return 0, err
	}

	referrals, err := s.referralRepo.ListReferrerIDsWithSuccess(from, to)
	if err != nil {
		return 0, err
	}

	type aggregate struct {
		userID   int64
		count    int
		earliest time.Time
	}
	byReferrer := map[int64]*aggregate{}
	for _, referral := range referrals {
		if referral.FirstTransactionAt == nil {
			continue
		}
		agg, ok := byReferrer[referral.ReferrerID]
		if !ok {
			agg = &aggregate{userID: referral.ReferrerID, earliest: *referral.FirstTransactionAt}
			byReferrer[referral.ReferrerID] = agg
		}
		agg.count++
		if referral.FirstTransactionAt.Before(agg.earliest) {
			agg.earliest = *referral.FirstTransactionAt
		}
	}

	aggregates := make([]*aggregate, 0, len(byReferrer))
	for _, agg := range byReferrer {
		aggregates = append(aggregates, agg)
	}
	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].count != aggregates[j].count {
			return aggregates[i].count > aggregates[j].count
		}
		return aggregates[i].earliest.Before(aggregates[j].earliest)
	})

	now := time.Now()
	rankings := make([]models.MonthlyRanking, 0, len(aggregates))
	for i, agg := range aggregates {
		rankings = append(rankings, models.MonthlyRanking{
			UserID:      agg.userID,
			Month:       month,
			InviteCount: agg.count,
			Rank:        i + 1,
			CreatedAt:   agg.earliest,
			UpdatedAt:   now,
		})
	}

	if err := s.repo.UpsertBatch(rankings); err != nil {
		return 0, err
	}
	if len(rankings) == 0 {
		if err := cache.DelMonthlyRanking(context.Background(), month); err != nil {
			logger.Warnw("ranking_cache_invalidate_failed", "month", month, "error", err)
		}
	} else {
		s.fillCache(context.Background(), month, rankings)
	}

	logger.Infow("monthly_ranking_recomputed", "month", month, "entries", len(rankings))
	return len(rankings), nil
}

func (s *RankingService) fillCache(ctx context.Context, month string, rankings []models.MonthlyRanking) {
	if !cache.Enabled() || len(rankings) == 0 {
		return
	}
	snapshot := &cache.RankingSnapshot{
		Month:     month,
		UpdatedAt: time.Now().Unix(),
	}
	for _, ranking := range rankings {
		snapshot.Entries = append(snapshot.Entries, cache.RankingEntry{
			Rank:        ranking.Rank,
			UserID:      ranking.UserID,
			InviteCount: ranking.InviteCount,
		})
	}
	ttl := time.Duration(s.cfg.RankingCacheSecond) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := cache.SetMonthlyRanking(ctx, snapshot, ttl); err != nil {
		logger.Warnw("ranking_cache_write_failed", "month", month, "error", err)
	}
}

func snapshotToRankings(snapshot *cache.RankingSnapshot, month string, limit int) []models.MonthlyRanking {
	rankings := make([]models.MonthlyRanking, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		if limit > 0 && len(rankings) >= limit {
			break
		}
		rankings = append(rankings, models.MonthlyRanking{
			UserID:      entry.UserID,
			Month:       month,
			InviteCount: entry.InviteCount,
			Rank:        entry.Rank,
		})
	}
	return rankings
}

// monthRange 解析 YYYY-MM 为当月起止时间（左闭右开）
func monthRange(month string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", month, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}
