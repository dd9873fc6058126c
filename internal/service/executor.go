package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/metrics"
	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/memorialops/cemetery-gin/internal/schema"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ActionExecutor 审批操作执行器
// 将已批准操作的 change_data 应用到目标实体,幂等可重试
type ActionExecutor interface {
	// Execute 执行单条已批准的操作
	// 已执行过的操作直接返回成功;执行失败返回 ExecutionError,
	// 记录保持 approved + is_executed=false 以供重试
	Execute(action *model.PendingActionModel) error
	// RetryPending 扫描已批准未执行的记录并逐条重试,返回成功条数
	RetryPending(limit int) (int, error)
}

// actionExecutor 审批操作执行器实现
type actionExecutor struct {
	db         *gorm.DB
	actionRepo repository.PendingActionRepository
	logger     *logrus.Logger
}

// NewActionExecutor 创建审批操作执行器
func NewActionExecutor(db *gorm.DB, actionRepo repository.PendingActionRepository, logger *logrus.Logger) ActionExecutor {
	return &actionExecutor{
		db:         db,
		actionRepo: actionRepo,
		logger:     logger,
	}
}

// Execute 执行已批准的操作
func (e *actionExecutor) Execute(action *model.PendingActionModel) error {
	if action.Status != model.StatusApproved {
		return apperr.Conflict(fmt.Sprintf("action %s is %s, only approved actions can be executed", action.ID, action.Status))
	}
	if action.IsExecuted {
		// 幂等:重复执行请求直接按成功返回
		metrics.RecordExecution("noop")
		return nil
	}

	payload, err := schema.Decode(action.ActionType, action.ChangeData)
	if err != nil {
		metrics.RecordExecution("failure")
		return apperr.Execution("stored change data failed to decode", err)
	}

	now := time.Now()
	executed := false
	err = e.db.Transaction(func(tx *gorm.DB) error {
		// 先抢执行标记,抢不到说明另一个执行方已完成
		won, err := repository.NewPendingActionRepository(tx).MarkExecuted(action.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		executed = true
		return e.apply(tx, action, payload)
	})
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"action_id":   action.ID,
			"action_type": action.ActionType,
			"error":       err.Error(),
		}).Error("Action execution failed, left retryable")
		metrics.RecordExecution("failure")
		if apperr.IsExecution(err) {
			return err
		}
		return apperr.Execution("failed to apply approved change", err)
	}

	if !executed {
		metrics.RecordExecution("noop")
		return nil
	}

	action.IsExecuted = true
	action.ExecutedAt = &now
	metrics.RecordExecution("success")
	e.logger.WithFields(logrus.Fields{
		"action_id":   action.ID,
		"action_type": action.ActionType,
	}).Info("Approved action executed")
	return nil
}

// apply 按操作类型将变更写入目标实体,与执行标记同一事务提交
func (e *actionExecutor) apply(tx *gorm.DB, action *model.PendingActionModel, payload schema.Payload) error {
	switch action.ActionType {
	case schema.ActionClientCreate:
		return e.applyClientCreate(tx, payload.(*schema.ClientCreateData))
	case schema.ActionClientUpdate:
		return e.applyClientUpdate(tx, action, payload.(*schema.ClientUpdateData))
	case schema.ActionPaymentUpdate:
		return e.applyPaymentUpdate(tx, action, payload.(*schema.PaymentUpdateData))
	case schema.ActionBurialCreate:
		return e.applyBurialCreate(tx, payload.(*schema.BurialCreateData))
	case schema.ActionContentUpdate:
		return e.applyContentUpdate(tx, action, payload.(*schema.ContentUpdateData))
	default:
		return fmt.Errorf("no executor for action type %q", action.ActionType)
	}
}

// applyClientCreate 创建客户
func (e *actionExecutor) applyClientCreate(tx *gorm.DB, data *schema.ClientCreateData) error {
	now := time.Now()
	client := &model.ClientModel{
		ID:        uuid.New().String(),
		Name:      data.Name,
		Email:     data.Email,
		Phone:     data.Phone,
		Address:   data.Address,
		Status:    model.ClientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return repository.NewClientRepository(tx).Create(client)
}

// applyClientUpdate 更新客户字段
func (e *actionExecutor) applyClientUpdate(tx *gorm.DB, action *model.PendingActionModel, data *schema.ClientUpdateData) error {
	fields := map[string]interface{}{}
	if data.Name != nil {
		fields["name"] = *data.Name
	}
	if data.Email != nil {
		fields["email"] = *data.Email
	}
	if data.Phone != nil {
		fields["phone"] = *data.Phone
	}
	if data.Address != nil {
		fields["address"] = *data.Address
	}
	if data.Status != nil {
		fields["status"] = *data.Status
	}
	repo := repository.NewClientRepository(tx)
	return e.updateTarget(action, func(id string) error {
		if _, err := repo.FindByID(id); err != nil {
			return err
		}
		return repo.UpdateFields(id, fields)
	})
}

// applyPaymentUpdate 更新缴费记录字段
func (e *actionExecutor) applyPaymentUpdate(tx *gorm.DB, action *model.PendingActionModel, data *schema.PaymentUpdateData) error {
	fields := map[string]interface{}{}
	if data.Status != nil {
		fields["status"] = *data.Status
	}
	if data.Amount != nil {
		fields["amount"] = *data.Amount
	}
	if data.Method != nil {
		fields["method"] = *data.Method
	}
	repo := repository.NewPaymentRepository(tx)
	return e.updateTarget(action, func(id string) error {
		if _, err := repo.FindByID(id); err != nil {
			return err
		}
		return repo.UpdateFields(id, fields)
	})
}

// applyBurialCreate 创建安葬记录并占用墓位
func (e *actionExecutor) applyBurialCreate(tx *gorm.DB, data *schema.BurialCreateData) error {
	lotRepo := repository.NewLotRepository(tx)
	lot, err := lotRepo.FindByID(data.LotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lot %q not found", data.LotID)
		}
		return err
	}
	if lot.Status == model.LotStatusOccupied {
		return fmt.Errorf("lot %q is already occupied", data.LotID)
	}

	now := time.Now()
	burial := &model.BurialModel{
		ID:            uuid.New().String(),
		DeceasedName:  data.DeceasedName,
		DateOfDeath:   data.DateOfDeath,
		IntermentDate: data.IntermentDate,
		LotID:         data.LotID,
		ClientID:      data.ClientID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repository.NewBurialRepository(tx).Create(burial); err != nil {
		return err
	}
	// 安葬记录与墓位占用同事务落库
	return lotRepo.UpdateStatus(data.LotID, model.LotStatusOccupied)
}

// applyContentUpdate 更新官网内容字段
func (e *actionExecutor) applyContentUpdate(tx *gorm.DB, action *model.PendingActionModel, data *schema.ContentUpdateData) error {
	fields := map[string]interface{}{}
	if data.Title != nil {
		fields["title"] = *data.Title
	}
	if data.Body != nil {
		fields["body"] = *data.Body
	}
	repo := repository.NewWebsiteContentRepository(tx)
	return e.updateTarget(action, func(id string) error {
		if _, err := repo.FindByID(id); err != nil {
			return err
		}
		return repo.UpdateFields(id, fields)
	})
}

// updateTarget 对更新类操作执行字段写入,目标缺失时给出明确错误
func (e *actionExecutor) updateTarget(action *model.PendingActionModel, update func(id string) error) error {
	if action.TargetID == nil {
		return fmt.Errorf("update action %s has no target", action.ID)
	}
	if err := update(*action.TargetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s %q not found", action.TargetEntity, *action.TargetID)
		}
		return err
	}
	return nil
}

// RetryPending 重试已批准未执行的记录
func (e *actionExecutor) RetryPending(limit int) (int, error) {
	actions, err := e.actionRepo.FindRetryable(limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load retryable actions: %w", err)
	}

	succeeded := 0
	for _, action := range actions {
		if err := e.Execute(action); err != nil {
			e.logger.WithFields(logrus.Fields{
				"action_id": action.ID,
				"error":     err.Error(),
			}).Warn("Retry execution failed")
			continue
		}
		succeeded++
	}
	return succeeded, nil
}
