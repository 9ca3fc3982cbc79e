package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/wushipay/wushipay/internal/constants"
	"github.com/wushipay/wushipay/internal/models"

	"gorm.io/gorm"
)

// GroupRepository 群组数据访问接口
type GroupRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) GroupRepository

	GetByGroupID(groupID int64) (*models.Group, error)
	Upsert(group *models.Group) error

	GetMember(groupID, userID int64) (*models.GroupMember, error)
	AddPendingMember(groupID, userID int64, now time.Time) (*models.GroupMember, error)
	SetMemberStatus(groupID, userID int64, status string, now time.Time) error
	ListMembers(groupID int64, status string) ([]models.GroupMember, error)

	ListActiveWords(groupID int64) ([]models.SensitiveWord, error)
	AddWord(word *models.SensitiveWord) error
	RemoveWord(id uint) error
}

// GormGroupRepository GORM 群组仓储实现
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository 创建群组仓储
func NewGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormGroupRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormGroupRepository) WithTx(tx *gorm.DB) GroupRepository {
	if tx == nil {
		return r
	}
	return &GormGroupRepository{db: tx}
}

// GetByGroupID 按平台群组ID获取群组
func (r *GormGroupRepository) GetByGroupID(groupID int64) (*models.Group, error) {
	if groupID == 0 {
		return nil, nil
	}
	var group models.Group
	if err := r.db.Where("group_id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// Upsert 创建或更新群组
func (r *GormGroupRepository) Upsert(group *models.Group) error {
	if group == nil || group.GroupID == 0 {
		return nil
	}
	existing, err := r.GetByGroupID(group.GroupID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(group).Error
	}
	group.ID = existing.ID
	group.CreatedAt = existing.CreatedAt
	return r.db.Save(group).Error
}

// GetMember 获取群成员记录
func (r *GormGroupRepository) GetMember(groupID, userID int64) (*models.GroupMember, error) {
	if groupID == 0 || userID == 0 {
		return nil, nil
	}
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// AddPendingMember 新成员入群登记；重复入群时复用历史行并重置为待验证
func (r *GormGroupRepository) AddPendingMember(groupID, userID int64, now time.Time) (*models.GroupMember, error) {
	existing, err := r.GetMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Status = constants.GroupMemberStatusPending
		existing.JoinedAt = now
		existing.VerifiedAt = nil
		if err := r.db.Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}
	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Status:   constants.GroupMemberStatusPending,
		JoinedAt: now,
	}
	if err := r.db.Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// SetMemberStatus 更新群成员状态
func (r *GormGroupRepository) SetMemberStatus(groupID, userID int64, status string, now time.Time) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if status == constants.GroupMemberStatusVerified {
		updates["verified_at"] = now
	}
	return r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Updates(updates).Error
}

// ListMembers 列出群成员（可按状态过滤）
func (r *GormGroupRepository) ListMembers(groupID int64, status string) ([]models.GroupMember, error) {
	query := r.db.Where("group_id = ?", groupID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var members []models.GroupMember
	if err := query.Order("joined_at asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListActiveWords 列出生效敏感词（含全局词条）
func (r *GormGroupRepository) ListActiveWords(groupID int64) ([]models.SensitiveWord, error) {
	var words []models.SensitiveWord
	if err := r.db.Where("is_active = ? AND (group_id = ? OR group_id IS NULL)", true, groupID).
		Find(&words).Error; err != nil {
		return nil, err
	}
	return words, nil
}

// AddWord 新增敏感词
func (r *GormGroupRepository) AddWord(word *models.SensitiveWord) error {
	if word == nil || strings.TrimSpace(word.Word) == "" {
		return nil
	}
	word.Word = strings.TrimSpace(word.Word)
	return r.db.Create(word).Error
}

// RemoveWord 停用敏感词
func (r *GormGroupRepository) RemoveWord(id uint) error {
	return r.db.Model(&models.SensitiveWord{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
