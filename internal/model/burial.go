package model

import (
	"errors"
	"time"
)

// BurialModel 安葬记录数据模型
type BurialModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DeceasedName  string    `gorm:"type:varchar(128);not null;index" json:"deceased_name"`
	DateOfDeath   string    `gorm:"type:varchar(10)" json:"date_of_death"` // YYYY-MM-DD
	IntermentDate string    `gorm:"type:varchar(10)" json:"interment_date"`
	LotID         string    `gorm:"type:varchar(64);not null;index" json:"lot_id"`
	ClientID      string    `gorm:"type:varchar(64);index" json:"client_id"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (BurialModel) TableName() string {
	return "burials"
}

// Validate 验证安葬记录模型
func (bm *BurialModel) Validate() error {
	if bm.ID == "" {
		return errors.New("burial ID is required")
	}
	if bm.DeceasedName == "" {
		return errors.New("deceased name is required")
	}
	if bm.LotID == "" {
		return errors.New("lot ID is required")
	}
	return nil
}
