package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐奖励数据访问接口
type ReferralRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralRepository

	GetCodeByUserID(userID int64) (*models.ReferralCode, error)
	GetCodeByUserIDForUpdate(userID int64) (*models.ReferralCode, error)
	GetCodeByCode(code string) (*models.ReferralCode, error)
	CreateCode(code *models.ReferralCode) error
	UpdateCode(code *models.ReferralCode) error
	AddTotalInvites(userID int64, now time.Time) error
	AddSuccessfulInvite(userID int64, reward decimal.Decimal, now time.Time) error
	AddLotteryEntry(userID int64) error
	ConsumeLotteryEntry(userID int64) (bool, error)

	GetReferralByReferredID(referredID int64) (*models.Referral, error)
	GetReferralByReferredIDForUpdate(referredID int64) (*models.Referral, error)
	CreateReferral(referral *models.Referral) error
	UpdateReferral(referral *models.Referral) error
	CountReferralsByReferrer(referrerID int64, statuses []string, from, to *time.Time) (int64, error)
	ListReferrerIDsWithSuccess(from, to time.Time) ([]models.Referral, error)

	CreateReward(reward *models.ReferralReward) error
	ListRewards(filter RewardListFilter) ([]models.ReferralReward, int64, error)

	CreateLotteryEntryRecord(entry *models.LotteryEntry) error
	ListLotteryEntries(userID int64, limit int) ([]models.LotteryEntry, error)
}

// GormReferralRepository GORM 推荐仓储实现
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// GetCodeByUserID 按用户ID获取推荐码
func (r *GormReferralRepository) GetCodeByUserID(userID int64) (*models.ReferralCode, error) {
	if userID == 0 {
		return nil, nil
	}
	var code models.ReferralCode
	if err := r.db.Where("user_id = ?", userID).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetCodeByUserIDForUpdate 按用户ID加锁获取推荐码
func (r *GormReferralRepository) GetCodeByUserIDForUpdate(userID int64) (*models.ReferralCode, error) {
	if userID == 0 {
		return nil, nil
	}
	var code models.ReferralCode
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetCodeByCode 按推荐码文本获取推荐码
func (r *GormReferralRepository) GetCodeByCode(code string) (*models.ReferralCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var record models.ReferralCode
	if err := r.db.Where("referral_code = ?", code).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// CreateCode 创建推荐码
func (r *GormReferralRepository) CreateCode(code *models.ReferralCode) error {
	return r.db.Create(code).Error
}

// UpdateCode 更新推荐码
func (r *GormReferralRepository) UpdateCode(code *models.ReferralCode) error {
	return r.db.Save(code).Error
}

// AddTotalInvites 累加邀请计数
func (r *GormReferralRepository) AddTotalInvites(userID int64, now time.Time) error {
	return r.db.Model(&models.ReferralCode{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_invites": gorm.Expr("total_invites + 1"),
			"updated_at":    now,
		}).Error
}

// AddSuccessfulInvite 累加成功邀请计数与累计奖励（原子自增）
func (r *GormReferralRepository) AddSuccessfulInvite(userID int64, reward decimal.Decimal, now time.Time) error {
	return r.db.Model(&models.ReferralCode{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"successful_invites": gorm.Expr("successful_invites + 1"),
			"total_rewards":      gorm.Expr("total_rewards + ?", models.NewMoneyFromDecimal(reward)),
			"updated_at":         now,
		}).Error
}

// AddLotteryEntry 增加一次抽奖机会
func (r *GormReferralRepository) AddLotteryEntry(userID int64) error {
	return r.db.Model(&models.ReferralCode{}).
		Where("user_id = ?", userID).
		Update("lottery_entries", gorm.Expr("lottery_entries + 1")).Error
}

// ConsumeLotteryEntry 扣减一次抽奖机会；余额不足时不更新并返回 false
func (r *GormReferralRepository) ConsumeLotteryEntry(userID int64) (bool, error) {
	result := r.db.Model(&models.ReferralCode{}).
		Where("user_id = ? AND lottery_entries > 0", userID).
		Update("lottery_entries", gorm.Expr("lottery_entries - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetReferralByReferredID 按被邀请人获取推荐关系
func (r *GormReferralRepository) GetReferralByReferredID(referredID int64) (*models.Referral, error) {
	if referredID == 0 {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Where("referred_id = ?", referredID).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// GetReferralByReferredIDForUpdate 按被邀请人加锁获取推荐关系
func (r *GormReferralRepository) GetReferralByReferredIDForUpdate(referredID int64) (*models.Referral, error) {
	if referredID == 0 {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referred_id = ?", referredID).
		First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// CreateReferral 创建推荐关系
func (r *GormReferralRepository) CreateReferral(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// UpdateReferral 更新推荐关系
func (r *GormReferralRepository) UpdateReferral(referral *models.Referral) error {
	return r.db.Save(referral).Error
}

// CountReferralsByReferrer 统计邀请人的推荐关系数量
func (r *GormReferralRepository) CountReferralsByReferrer(referrerID int64, statuses []string, from, to *time.Time) (int64, error) {
	query := r.db.Model(&models.Referral{}).Where("referrer_id = ?", referrerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if from != nil {
		query = query.Where("first_transaction_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("first_transaction_at < ?", *to)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// ListReferrerIDsWithSuccess 列出指定时间窗内有成功邀请的推荐关系
func (r *GormReferralRepository) ListReferrerIDsWithSuccess(from, to time.Time) ([]models.Referral, error) {
	var referrals []models.Referral
	if err := r.db.Where(
		"status IN ? AND first_transaction_at >= ? AND first_transaction_at < ?",
		[]string{constants.ReferralStatusFirstTransaction, constants.ReferralStatusRewarded}, from, to,
	).Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}

// CreateReward 追加奖励流水
func (r *GormReferralRepository) CreateReward(reward *models.ReferralReward) error {
	return r.db.Create(reward).Error
}

// ListRewards 分页查询奖励流水
func (r *GormReferralRepository) ListRewards(filter RewardListFilter) ([]models.ReferralReward, int64, error) {
	query := r.db.Model(&models.ReferralReward{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.RewardType != "" {
		query = query.Where("reward_type = ?", filter.RewardType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rewards []models.ReferralReward
	if err := query.Order("created_at desc").Find(&rewards).Error; err != nil {
		return nil, 0, err
	}
	return rewards, total, nil
}

// CreateLotteryEntryRecord 追加抽奖结果记录
func (r *GormReferralRepository) CreateLotteryEntryRecord(entry *models.LotteryEntry) error {
	return r.db.Create(entry).Error
}

// ListLotteryEntries 查询用户抽奖记录
func (r *GormReferralRepository) ListLotteryEntries(userID int64, limit int) ([]models.LotteryEntry, error) {
	query := r.db.Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []models.LotteryEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
