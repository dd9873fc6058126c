package repository

import (
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"gorm.io/gorm"
)

// LotRepository 墓位仓储接口
type LotRepository interface {
	Create(lot *model.LotModel) error
	FindByID(id string) (*model.LotModel, error)
	UpdateStatus(id string, status string) error
}

// lotRepository 墓位仓储实现
type lotRepository struct {
	db *gorm.DB
}

// NewLotRepository 创建墓位仓储
func NewLotRepository(db *gorm.DB) LotRepository {
	return &lotRepository{db: db}
}

// Create 创建墓位
func (r *lotRepository) Create(lot *model.LotModel) error {
	if err := lot.Validate(); err != nil {
		return err
	}
	return r.db.Create(lot).Error
}

// FindByID 根据 ID 查找墓位
func (r *lotRepository) FindByID(id string) (*model.LotModel, error) {
	var lot model.LotModel
	if err := r.db.Where("id = ?", id).First(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// UpdateStatus 更新墓位状态
func (r *lotRepository) UpdateStatus(id string, status string) error {
	return r.db.Model(&model.LotModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
}
