package model

import (
	"errors"
	"time"
)

// 客户状态
const (
	ClientStatusActive   = "Active"
	ClientStatusInactive = "Inactive"
)

// ClientModel 客户数据模型
// 墓园服务客户(墓地购买人/缴费人),是审批操作的目标实体之一
type ClientModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null;index" json:"name"`
	Email     string    `gorm:"type:varchar(128);index" json:"email"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Status    string    `gorm:"type:varchar(32);not null;default:'Active'" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (ClientModel) TableName() string {
	return "clients"
}

// Validate 验证客户模型
func (cm *ClientModel) Validate() error {
	if cm.ID == "" {
		return errors.New("client ID is required")
	}
	if cm.Name == "" {
		return errors.New("client name is required")
	}
	return nil
}
