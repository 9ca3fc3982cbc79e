package repository

import (
	"errors"

	"github.com/wushipay/wushipay/internal/models"

	"gorm.io/gorm"
)

// RateRepository 费率配置数据访问接口
type RateRepository interface {
	GetActiveRate(channel string, vipLevel int) (*models.RateConfig, error)
	ListActive() ([]models.RateConfig, error)
	Upsert(config *models.RateConfig) error
}

// GormRateRepository GORM 费率仓储实现
type GormRateRepository struct {
	db *gorm.DB
}

// NewRateRepository 创建费率仓储
func NewRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// GetActiveRate 获取启用中的费率配置
func (r *GormRateRepository) GetActiveRate(channel string, vipLevel int) (*models.RateConfig, error) {
	var config models.RateConfig
	if err := r.db.Where("channel = ? AND vip_level = ? AND is_active = ?", channel, vipLevel, true).
		First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// ListActive 列出全部启用中的费率配置
func (r *GormRateRepository) ListActive() ([]models.RateConfig, error) {
	var configs []models.RateConfig
	if err := r.db.Where("is_active = ?", true).
		Order("channel asc, vip_level asc").
		Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// Upsert 创建或更新费率配置（按渠道 + VIP 等级）
func (r *GormRateRepository) Upsert(config *models.RateConfig) error {
	if config == nil {
		return nil
	}
	existing, err := r.GetActiveRate(config.Channel, config.VIPLevel)
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
