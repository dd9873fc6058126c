package service

import (
	"errors"
	"fmt"

	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/memorialops/cemetery-gin/internal/schema"
	"gorm.io/gorm"
)

// snapshotPrevious 采集目标实体当前值作为 previous_data
// 字段集与 change_data 完全一致;目标不存在返回 NotFoundError
func snapshotPrevious(db *gorm.DB, targetEntity string, targetID string, payload schema.UpdatePayload) (map[string]interface{}, error) {
	switch targetEntity {
	case schema.EntityClient:
		return snapshotClient(db, targetID, payload.Keys())
	case schema.EntityPayment:
		return snapshotPayment(db, targetID, payload.Keys())
	case schema.EntityWebsite:
		return snapshotContent(db, targetID, payload.Keys())
	default:
		return nil, fmt.Errorf("no snapshot support for entity %q", targetEntity)
	}
}

// snapshotClient 采集客户字段快照
func snapshotClient(db *gorm.DB, id string, keys []string) (map[string]interface{}, error) {
	client, err := repository.NewClientRepository(db).FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("client %q not found", id))
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	snap := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		switch key {
		case "name":
			snap[key] = client.Name
		case "email":
			snap[key] = client.Email
		case "phone":
			snap[key] = client.Phone
		case "address":
			snap[key] = client.Address
		case "status":
			snap[key] = client.Status
		}
	}
	return snap, nil
}

// snapshotPayment 采集缴费记录字段快照
func snapshotPayment(db *gorm.DB, id string, keys []string) (map[string]interface{}, error) {
	payment, err := repository.NewPaymentRepository(db).FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("payment %q not found", id))
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	snap := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		switch key {
		case "status":
			snap[key] = payment.Status
		case "amount":
			snap[key] = payment.Amount
		case "method":
			snap[key] = payment.Method
		}
	}
	return snap, nil
}

// snapshotContent 采集官网内容字段快照
func snapshotContent(db *gorm.DB, id string, keys []string) (map[string]interface{}, error) {
	content, err := repository.NewWebsiteContentRepository(db).FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("website content %q not found", id))
		}
		return nil, fmt.Errorf("failed to load website content: %w", err)
	}

	snap := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		switch key {
		case "title":
			snap[key] = content.Title
		case "body":
			snap[key] = content.Body
		}
	}
	return snap, nil
}
