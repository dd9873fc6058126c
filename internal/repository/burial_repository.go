package repository

import (
	"github.com/memorialops/cemetery-gin/internal/model"
	"gorm.io/gorm"
)

// BurialRepository 安葬记录仓储接口
type BurialRepository interface {
	Create(burial *model.BurialModel) error
	FindByID(id string) (*model.BurialModel, error)
	FindByLotID(lotID string) ([]*model.BurialModel, error)
}

// burialRepository 安葬记录仓储实现
type burialRepository struct {
	db *gorm.DB
}

// NewBurialRepository 创建安葬记录仓储
func NewBurialRepository(db *gorm.DB) BurialRepository {
	return &burialRepository{db: db}
}

// Create 创建安葬记录
func (r *burialRepository) Create(burial *model.BurialModel) error {
	if err := burial.Validate(); err != nil {
		return err
	}
	return r.db.Create(burial).Error
}

// FindByID 根据 ID 查找安葬记录
func (r *burialRepository) FindByID(id string) (*model.BurialModel, error) {
	var burial model.BurialModel
	if err := r.db.Where("id = ?", id).First(&burial).Error; err != nil {
		return nil, err
	}
	return &burial, nil
}

// FindByLotID 查找墓位下的安葬记录
func (r *burialRepository) FindByLotID(lotID string) ([]*model.BurialModel, error) {
	var burials []*model.BurialModel
	err := r.db.Where("lot_id = ?", lotID).Order("created_at DESC").Find(&burials).Error
	return burials, err
}
