package repository

import (
	"errors"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerificationStats 群验证统计
type VerificationStats struct {
	Total    int64 `json:"total"`
	Passed   int64 `json:"passed"`
	Rejected int64 `json:"rejected"`
	Pending  int64 `json:"pending"`
}

// VerificationRepository 入群验证数据访问接口
type VerificationRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) VerificationRepository

	CreateQuestion(question *models.VerificationQuestion) error
	GetQuestion(id uint) (*models.VerificationQuestion, error)
	PickRandomQuestion(filter QuestionListFilter) (*models.VerificationQuestion, error)
	ListQuestions(filter QuestionListFilter) ([]models.VerificationQuestion, error)
	DeactivateQuestion(id uint) error

	CreatePendingRecord(record *models.VerificationRecord) error
	GetPendingRecord(groupID, userID int64) (*models.VerificationRecord, error)
	GetPendingRecordForUpdate(groupID, userID int64) (*models.VerificationRecord, error)
	UpdateRecord(id uint, updates map[string]interface{}) error
	SweepExpired(now time.Time) (int64, error)
	GetStats(groupID int64, since time.Time) (*VerificationStats, error)

	GetConfig(groupID int64) (*models.VerificationConfig, error)
	UpsertConfig(config *models.VerificationConfig) error
}

// GormVerificationRepository GORM 验证仓储实现
type GormVerificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository 创建验证仓储
func NewVerificationRepository(db *gorm.DB) *GormVerificationRepository {
	return &GormVerificationRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormVerificationRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormVerificationRepository) WithTx(tx *gorm.DB) VerificationRepository {
	if tx == nil {
		return r
	}
	return &GormVerificationRepository{db: tx}
}

// CreateQuestion 创建验证题目
func (r *GormVerificationRepository) CreateQuestion(question *models.VerificationQuestion) error {
	return r.db.Create(question).Error
}

// GetQuestion 按ID获取题目
func (r *GormVerificationRepository) GetQuestion(id uint) (*models.VerificationQuestion, error) {
	if id == 0 {
		return nil, nil
	}
	var question models.VerificationQuestion
	if err := r.db.First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &question, nil
}

// PickRandomQuestion 随机选取一道题目
func (r *GormVerificationRepository) PickRandomQuestion(filter QuestionListFilter) (*models.VerificationQuestion, error) {
	filter.Limit = 1
	questions, err := r.ListQuestions(filter)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}

// ListQuestions 查询题目列表（GroupID 非空时只取该群题目，空则只取全局题目）
func (r *GormVerificationRepository) ListQuestions(filter QuestionListFilter) ([]models.VerificationQuestion, error) {
	query := r.db.Model(&models.VerificationQuestion{})
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	} else {
		query = query.Where("group_id IS NULL")
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	query = query.Order("RANDOM()")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var questions []models.VerificationQuestion
	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// DeactivateQuestion 停用题目
func (r *GormVerificationRepository) DeactivateQuestion(id uint) error {
	return r.db.Model(&models.VerificationQuestion{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// CreatePendingRecord 创建待验证记录；先清理同 (group,user) 的旧 pending 记录，
// 保证任一时刻至多一条 pending。
func (r *GormVerificationRepository) CreatePendingRecord(record *models.VerificationRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND user_id = ? AND result = ?",
			record.GroupID, record.UserID, constants.VerificationResultPending).
			Delete(&models.VerificationRecord{}).Error; err != nil {
			return err
		}
		record.Result = constants.VerificationResultPending
		return tx.Create(record).Error
	})
}

// GetPendingRecord 获取待验证记录
func (r *GormVerificationRepository) GetPendingRecord(groupID, userID int64) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	if err := r.db.Where("group_id = ? AND user_id = ? AND result = ?",
		groupID, userID, constants.VerificationResultPending).
		Order("created_at desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetPendingRecordForUpdate 加锁获取待验证记录
func (r *GormVerificationRepository) GetPendingRecordForUpdate(groupID, userID int64) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ? AND user_id = ? AND result = ?",
			groupID, userID, constants.VerificationResultPending).
		Order("created_at desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// UpdateRecord 更新验证记录
func (r *GormVerificationRepository) UpdateRecord(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.VerificationRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SweepExpired 将超过题目时限仍未作答的 pending 记录转为 rejected。
// 时限取自各自关联的题目，先查出过期候选再批量更新，避免方言差异。
func (r *GormVerificationRepository) SweepExpired(now time.Time) (int64, error) {
	var records []models.VerificationRecord
	if err := r.db.Preload("Question").
		Where("result = ? AND question_id IS NOT NULL", constants.VerificationResultPending).
		Find(&records).Error; err != nil {
		return 0, err
	}

	expiredIDs := make([]uint, 0)
	for _, record := range records {
		if record.Question == nil {
			continue
		}
		limit := time.Duration(record.Question.TimeLimit) * time.Second
		if limit <= 0 {
			continue
		}
		if now.Sub(record.CreatedAt) > limit {
			expiredIDs = append(expiredIDs, record.ID)
		}
	}
	if len(expiredIDs) == 0 {
		return 0, nil
	}

	result := r.db.Model(&models.VerificationRecord{}).
		Where("id IN ? AND result = ?", expiredIDs, constants.VerificationResultPending).
		Updates(map[string]interface{}{
			"result":       constants.VerificationResultRejected,
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}

// GetStats 统计指定时间以来的验证结果分布
func (r *GormVerificationRepository) GetStats(groupID int64, since time.Time) (*VerificationStats, error) {
	stats := &VerificationStats{}
	base := r.db.Model(&models.VerificationRecord{}).
		Where("group_id = ? AND created_at >= ?", groupID, since)
	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	counts := []struct {
		result string
		dest   *int64
	}{
		{constants.VerificationResultPassed, &stats.Passed},
		{constants.VerificationResultRejected, &stats.Rejected},
		{constants.VerificationResultPending, &stats.Pending},
	}
	for _, c := range counts {
		if err := r.db.Model(&models.VerificationRecord{}).
			Where("group_id = ? AND created_at >= ? AND result = ?", groupID, since, c.result).
			Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// GetConfig 获取群验证配置
func (r *GormVerificationRepository) GetConfig(groupID int64) (*models.VerificationConfig, error) {
	if groupID == 0 {
		return nil, nil
	}
	var config models.VerificationConfig
	if err := r.db.Where("group_id = ?", groupID).First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// UpsertConfig 创建或更新群验证配置
func (r *GormVerificationRepository) UpsertConfig(config *models.VerificationConfig) error {
	if config == nil || config.GroupID == 0 {
		return nil
	}
	existing, err := r.GetConfig(config.GroupID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(config).Error
	}
	config.ID = existing.ID
	config.CreatedAt = existing.CreatedAt
	return r.db.Save(config).Error
}
