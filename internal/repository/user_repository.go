package repository

import (
	"errors"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) UserRepository

	GetByUserID(userID int64) (*models.User, error)
	GetByUserIDForUpdate(userID int64) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdateProfile(userID int64, updates map[string]interface{}) error
	UpdateVIPLevel(userID int64, vipLevel int) error
	AddStatistics(userID int64, amount decimal.Decimal, now time.Time) error
	CountPaidTransactions(userID int64) (int64, error)
}

// GormUserRepository GORM 用户仓储实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByUserID 按平台用户ID获取用户
func (r *GormUserRepository) GetByUserID(userID int64) (*models.User, error) {
	if userID == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUserIDForUpdate 按平台用户ID加锁获取用户
func (r *GormUserRepository) GetByUserIDForUpdate(userID int64) (*models.User, error) {
	if userID == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateProfile 更新用户资料字段
func (r *GormUserRepository) UpdateProfile(userID int64, updates map[string]interface{}) error {
	if userID == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("user_id = ?", userID).Updates(updates).Error
}

// UpdateVIPLevel 更新 VIP 等级
func (r *GormUserRepository) UpdateVIPLevel(userID int64, vipLevel int) error {
	return r.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"vip_level":  vipLevel,
			"updated_at": time.Now(),
		}).Error
}

// AddStatistics 累加成交统计（原子自增，只在交易转为已支付时调用）
func (r *GormUserRepository) AddStatistics(userID int64, amount decimal.Decimal, now time.Time) error {
	return r.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_transactions": gorm.Expr("total_transactions + 1"),
			"total_amount":       gorm.Expr("total_amount + ?", models.NewMoneyFromDecimal(amount)),
			"updated_at":         now,
		}).Error
}

// CountPaidTransactions 统计用户已支付交易数
func (r *GormUserRepository) CountPaidTransactions(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("user_id = ? AND status = ?", userID, constants.TransactionStatusPaid).
		Count(&count).Error
	return count, err
}
