package repository

import (
	"github.com/wushipay/wushipay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RankingRepository 月度排行数据访问接口
type RankingRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) RankingRepository

	ListByMonth(month string, limit int) ([]models.MonthlyRanking, error)
	UpsertBatch(rankings []models.MonthlyRanking) error
}

// GormRankingRepository GORM 月度排行仓储实现
type GormRankingRepository struct {
	db *gorm.DB
}

// NewRankingRepository 创建月度排行仓储
func NewRankingRepository(db *gorm.DB) *GormRankingRepository {
	return &GormRankingRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormRankingRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormRankingRepository) WithTx(tx *gorm.DB) RankingRepository {
	if tx == nil {
		return r
	}
	return &GormRankingRepository{db: tx}
}

// ListByMonth 按月份查询排行，邀请数降序，同数先达者在前
func (r *GormRankingRepository) ListByMonth(month string, limit int) ([]models.MonthlyRanking, error) {
	query := r.db.Where("month = ?", month).
		Order("invite_count desc, created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rankings []models.MonthlyRanking
	if err := query.Find(&rankings).Error; err != nil {
		return nil, err
	}
	return rankings, nil
}

// UpsertBatch 批量写入排行（按 (user_id, month) 冲突更新）
func (r *GormRankingRepository) UpsertBatch(rankings []models.MonthlyRanking) error {
	if len(rankings) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"invite_count", "rank", "updated_at",
		}),
	}).Create(&rankings).Error
}
