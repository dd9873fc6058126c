package model

import (
	"errors"
	"time"
)

// 墓位状态
const (
	LotStatusAvailable = "available"
	LotStatusReserved  = "reserved"
	LotStatusOccupied  = "occupied"
)

// LotModel 墓位数据模型
// 安葬记录创建时,关联墓位会被同步置为 occupied
type LotModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Section   string    `gorm:"type:varchar(32);not null;index" json:"section"`
	Number    int       `gorm:"type:int;not null" json:"number"`
	Status    string    `gorm:"type:varchar(32);not null;index" json:"status"`
	Price     float64   `gorm:"type:decimal(12,2)" json:"price"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (LotModel) TableName() string {
	return "lots"
}

// Validate 验证墓位模型
func (lm *LotModel) Validate() error {
	if lm.ID == "" {
		return errors.New("lot ID is required")
	}
	if lm.Section == "" {
		return errors.New("lot section is required")
	}
	if lm.Status == "" {
		return errors.New("lot status is required")
	}
	return nil
}
