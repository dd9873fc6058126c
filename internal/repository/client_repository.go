package repository

import (
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"gorm.io/gorm"
)

// ClientRepository 客户仓储接口
type ClientRepository interface {
	Create(client *model.ClientModel) error
	FindByID(id string) (*model.ClientModel, error)
	UpdateFields(id string, fields map[string]interface{}) error
}

// clientRepository 客户仓储实现
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository 创建客户仓储
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

// Create 创建客户
func (r *clientRepository) Create(client *model.ClientModel) error {
	if err := client.Validate(); err != nil {
		return err
	}
	return r.db.Create(client).Error
}

// FindByID 根据 ID 查找客户
func (r *clientRepository) FindByID(id string) (*model.ClientModel, error) {
	var client model.ClientModel
	if err := r.db.Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateFields 按字段更新客户
func (r *clientRepository) UpdateFields(id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&model.ClientModel{}).Where("id = ?", id).Updates(fields).Error
}
