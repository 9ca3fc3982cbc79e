package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository 交易数据访问接口
type TransactionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) TransactionRepository

	Create(txn *models.Transaction) error
	GetByOrderID(orderID string) (*models.Transaction, error)
	GetByOrderIDForUpdate(orderID string) (*models.Transaction, error)
	UpdateStatus(orderID string, status string, updates map[string]interface{}) error
	List(filter TransactionListFilter) ([]models.Transaction, int64, error)
	CountByUserAndStatus(userID int64, status string) (int64, error)
	ExpirePending(now time.Time) (int64, error)
}

// GormTransactionRepository GORM 交易仓储实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓储
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormTransactionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Create 创建交易
func (r *GormTransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// GetByOrderID 按订单号获取交易
func (r *GormTransactionRepository) GetByOrderID(orderID string) (*models.Transaction, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, nil
	}
	var txn models.Transaction
	if err := r.db.Where("order_id = ?", orderID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByOrderIDForUpdate 按订单号加锁获取交易
func (r *GormTransactionRepository) GetByOrderIDForUpdate(orderID string) (*models.Transaction, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, nil
	}
	var txn models.Transaction
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// UpdateStatus 更新交易状态
func (r *GormTransactionRepository) UpdateStatus(orderID string, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.Transaction{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

// List 分页查询交易
func (r *GormTransactionRepository) List(filter TransactionListFilter) ([]models.Transaction, int64, error) {
	query := r.db.Model(&models.Transaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.TransactionType != "" {
		query = query.Where("transaction_type = ?", filter.TransactionType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Channel != "" {
		query = query.Where("payment_channel = ?", filter.Channel)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.Transaction
	if err := query.Order("created_at desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// CountByUserAndStatus 统计用户指定状态交易数
func (r *GormTransactionRepository) CountByUserAndStatus(userID int64, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// ExpirePending 将过期的待支付交易批量转为已取消
func (r *GormTransactionRepository) ExpirePending(now time.Time) (int64, error) {
	result := r.db.Model(&models.Transaction{}).
		Where("status = ? AND expired_at <= ?", constants.TransactionStatusPending, now).
		Updates(map[string]interface{}{
			"status":     constants.TransactionStatusCancelled,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
