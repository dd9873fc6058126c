package model

import (
	"errors"
	"time"
)

// WebsiteContentModel 官网内容数据模型
// 按 slug 定位的单块可编辑内容(公告、服务介绍等)
type WebsiteContentModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Slug      string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"slug"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	UpdatedBy string    `gorm:"type:varchar(64)" json:"updated_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (WebsiteContentModel) TableName() string {
	return "website_contents"
}

// Validate 验证官网内容模型
func (wm *WebsiteContentModel) Validate() error {
	if wm.ID == "" {
		return errors.New("content ID is required")
	}
	if wm.Slug == "" {
		return errors.New("content slug is required")
	}
	return nil
}
