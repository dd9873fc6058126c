package repository

import (
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"gorm.io/gorm"
)

// WebsiteContentRepository 官网内容仓储接口
type WebsiteContentRepository interface {
	Create(content *model.WebsiteContentModel) error
	FindByID(id string) (*model.WebsiteContentModel, error)
	FindBySlug(slug string) (*model.WebsiteContentModel, error)
	UpdateFields(id string, fields map[string]interface{}) error
}

// websiteContentRepository 官网内容仓储实现
type websiteContentRepository struct {
	db *gorm.DB
}

// NewWebsiteContentRepository 创建官网内容仓储
func NewWebsiteContentRepository(db *gorm.DB) WebsiteContentRepository {
	return &websiteContentRepository{db: db}
}

// Create 创建官网内容
func (r *websiteContentRepository) Create(content *model.WebsiteContentModel) error {
	if err := content.Validate(); err != nil {
		return err
	}
	return r.db.Create(content).Error
}

// FindByID 根据 ID 查找官网内容
func (r *websiteContentRepository) FindByID(id string) (*model.WebsiteContentModel, error) {
	var content model.WebsiteContentModel
	if err := r.db.Where("id = ?", id).First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

// FindBySlug 根据 slug 查找官网内容
func (r *websiteContentRepository) FindBySlug(slug string) (*model.WebsiteContentModel, error) {
	var content model.WebsiteContentModel
	if err := r.db.Where("slug = ?", slug).First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

// UpdateFields 按字段更新官网内容
func (r *websiteContentRepository) UpdateFields(id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&model.WebsiteContentModel{}).Where("id = ?", id).Updates(fields).Error
}
