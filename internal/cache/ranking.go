package cache

import (
	"context"
	"fmt"
	"time"
)

// RankingSnapshot 月度排行缓存快照
// 仅用于服务端 Redis 缓存，避免排行查询反复打到数据库
type RankingSnapshot struct {
	Month     string         `json:"month"`      // 月份（YYYY-MM）
	Entries   []RankingEntry `json:"entries"`    // 排行条目
	UpdatedAt int64          `json:"updated_at"` // 快照时间（Unix 秒）
}

// RankingEntry 排行条目
type RankingEntry struct {
	Rank        int    `json:"rank"`         // 名次
	UserID      int64  `json:"user_id"`      // 平台用户ID
	InviteCount int    `json:"invite_count"` // 当月成功邀请数
}

func monthlyRankingKey(month string) string {
	return fmt.Sprintf("ranking:monthly:%s", month)
}

// GetMonthlyRanking 获取月度排行快照
func GetMonthlyRanking(ctx context.Context, month string) (*RankingSnapshot, bool, error) {
	if month == "" {
		return nil, false, nil
	}
	var snapshot RankingSnapshot
	hit, err := GetJSON(ctx, monthlyRankingKey(month), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetMonthlyRanking 写入月度排行快照
func SetMonthlyRanking(ctx context.Context, snapshot *RankingSnapshot, ttl time.Duration) error {
	if snapshot == nil || snapshot.Month == "" {
		return nil
	}
	return SetJSON(ctx, monthlyRankingKey(snapshot.Month), snapshot, ttl)
}

// DelMonthlyRanking 删除月度排行快照
func DelMonthlyRanking(ctx context.Context, month string) error {
	if month == "" {
		return nil
	}
	return Del(ctx, monthlyRankingKey(month))
}
