package repository

import (
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"gorm.io/gorm"
)

// PaymentRepository 缴费记录仓储接口
type PaymentRepository interface {
	Create(payment *model.PaymentModel) error
	FindByID(id string) (*model.PaymentModel, error)
	UpdateFields(id string, fields map[string]interface{}) error
}

// paymentRepository 缴费记录仓储实现
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建缴费记录仓储
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create 创建缴费记录
func (r *paymentRepository) Create(payment *model.PaymentModel) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	return r.db.Create(payment).Error
}

// FindByID 根据 ID 查找缴费记录
func (r *paymentRepository) FindByID(id string) (*model.PaymentModel, error) {
	var payment model.PaymentModel
	if err := r.db.Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateFields 按字段更新缴费记录
// 状态变为 Completed 时同步补记 paid_at
func (r *paymentRepository) UpdateFields(id string, fields map[string]interface{}) error {
	if status, ok := fields["status"]; ok && status == model.PaymentStatusCompleted {
		if _, set := fields["paid_at"]; !set {
			fields["paid_at"] = time.Now()
		}
	}
	fields["updated_at"] = time.Now()
	return r.db.Model(&model.PaymentModel{}).Where("id = ?", id).Updates(fields).Error
}
