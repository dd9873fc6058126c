package model

import (
	"errors"
	"time"
)

// 缴费记录状态
const (
	PaymentStatusPending   = "Pending"
	PaymentStatusCompleted = "Completed"
	PaymentStatusRefunded  = "Refunded"
	PaymentStatusCancelled = "Cancelled"
)

// PaymentModel 缴费记录数据模型
type PaymentModel struct {
	ID        string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ClientID  string     `gorm:"type:varchar(64);not null;index" json:"client_id"`
	Amount    float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method    string     `gorm:"type:varchar(32)" json:"method"` // cash/gcash/bank_transfer
	Status    string     `gorm:"type:varchar(32);not null;index" json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (PaymentModel) TableName() string {
	return "payments"
}

// Validate 验证缴费记录模型
func (pm *PaymentModel) Validate() error {
	if pm.ID == "" {
		return errors.New("payment ID is required")
	}
	if pm.ClientID == "" {
		return errors.New("client ID is required")
	}
	if pm.Status == "" {
		return errors.New("payment status is required")
	}
	return nil
}
