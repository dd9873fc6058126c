package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/metrics"
	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/policy"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/memorialops/cemetery-gin/internal/schema"
	"github.com/memorialops/cemetery-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubmitRequest 提交待审批操作的入参
type SubmitRequest struct {
	ActionType string          `json:"action_type" binding:"required"`
	TargetID   *string         `json:"target_id,omitempty"`
	ChangeData json.RawMessage `json:"change_data" binding:"required"`
	Notes      string          `json:"notes,omitempty"`
	Priority   string          `json:"priority,omitempty"`
}

// SubmissionService 提交服务
// 接收员工的变更请求,按策略决定走审批队列还是免审快速通道
type SubmissionService interface {
	// CheckApprovalRequired 预检查某操作类型当前是否需要审批
	CheckApprovalRequired(actionType string) (bool, error)
	// Submit 提交变更请求
	// 快速通道下返回的记录已是 approved+executed;此时若执行失败,
	// 记录与 ExecutionError 一并返回,记录保持可重试状态
	Submit(ctx context.Context, req *SubmitRequest, requesterID string, requesterName string) (*model.PendingActionModel, error)
}

// submissionService 提交服务实现
type submissionService struct {
	db         *gorm.DB
	actionRepo repository.PendingActionRepository
	policy     *policy.Engine
	executor   ActionExecutor
	auditSvc   AuditLogService
	logger     *logrus.Logger
}

// NewSubmissionService 创建提交服务
func NewSubmissionService(
	db *gorm.DB,
	actionRepo repository.PendingActionRepository,
	policyEngine *policy.Engine,
	executor ActionExecutor,
	auditSvc AuditLogService,
	logger *logrus.Logger,
) SubmissionService {
	return &submissionService{
		db:         db,
		actionRepo: actionRepo,
		policy:     policyEngine,
		executor:   executor,
		auditSvc:   auditSvc,
		logger:     logger,
	}
}

// CheckApprovalRequired 预检查操作类型是否需要审批
// 策略查询失败按需要审批返回,不向调用方暴露错误
func (s *submissionService) CheckApprovalRequired(actionType string) (bool, error) {
	if _, ok := schema.Lookup(actionType); !ok {
		return false, apperr.Validation(fmt.Sprintf("unknown action type %q", actionType), "action_type")
	}
	required, err := s.policy.IsApprovalRequired(actionType)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"action_type": actionType,
			"error":       err.Error(),
		}).Warn("Policy lookup failed, defaulting to approval required")
		return true, nil
	}
	return required, nil
}

// Submit 提交变更请求
func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest, requesterID string, requesterName string) (*model.PendingActionModel, error) {
	if requesterID == "" {
		return nil, apperr.Validation("requester identity is required", "requested_by")
	}

	entry, ok := schema.Lookup(req.ActionType)
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("unknown action type %q", req.ActionType), "action_type")
	}

	payload, err := schema.Decode(req.ActionType, req.ChangeData)
	if err != nil {
		return nil, err
	}

	// 创建类操作不携带目标,更新类操作必须携带
	if entry.IsCreate && req.TargetID != nil {
		return nil, apperr.Validation("create actions must not carry a target id", "target_id")
	}
	if !entry.IsCreate {
		if req.TargetID == nil || *req.TargetID == "" {
			return nil, apperr.Validation("target id is required for update actions", "target_id")
		}
		if err := utils.ValidateEntityID(*req.TargetID); err != nil {
			return nil, apperr.Validation("invalid target id", "target_id")
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !model.ValidPriority(priority) {
		return nil, apperr.Validation(fmt.Sprintf("invalid priority %q", priority), "priority")
	}

	// 策略失败兜底为需要审批,绝不绕过审核
	required, perr := s.policy.IsApprovalRequired(req.ActionType)
	if perr != nil {
		s.logger.WithFields(logrus.Fields{
			"action_type": req.ActionType,
			"error":       perr.Error(),
		}).Warn("Policy lookup failed, submission routed to review queue")
		required = true
	}

	now := time.Now()
	action := &model.PendingActionModel{
		ID:              uuid.New().String(),
		ActionType:      req.ActionType,
		TargetEntity:    entry.TargetEntity,
		TargetID:        req.TargetID,
		ChangeData:      json.RawMessage(req.ChangeData),
		RequestedBy:     requesterID,
		RequestedByName: requesterName,
		Status:          model.StatusPending,
		Priority:        priority,
		Notes:           utils.SanitizeString(req.Notes),
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.policy.ExpiryDuration()),
	}
	if !required {
		// 快速通道:仍写入一条审批记录保持审计连续性
		action.Status = model.StatusApproved
		action.ReviewedBy = model.SystemReviewer
		reviewedAt := now
		action.ReviewedAt = &reviewedAt
	}

	// 快照读取与记录写入同事务,保证 previous_data 与最终落库一致
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.TargetID != nil {
			update, ok := payload.(schema.UpdatePayload)
			if !ok {
				return fmt.Errorf("payload for %q does not support snapshots", req.ActionType)
			}
			snap, err := snapshotPrevious(tx, entry.TargetEntity, *req.TargetID, update)
			if err != nil {
				return err
			}
			prev, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("failed to encode previous data: %w", err)
			}
			action.PreviousData = prev
		}
		return repository.NewPendingActionRepository(tx).Create(action)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSubmission(req.ActionType, !required)
	s.recordSubmissionAudit(ctx, action, !required)

	if !required {
		// 同步执行;失败时记录保持 approved 未执行,随记录一并上报
		if execErr := s.executor.Execute(action); execErr != nil {
			return action, execErr
		}
	}

	s.logger.WithFields(logrus.Fields{
		"action_id":    action.ID,
		"action_type":  action.ActionType,
		"requested_by": requesterID,
		"status":       action.Status,
	}).Info("Pending action submitted")
	return action, nil
}

// recordSubmissionAudit 写入提交审计日志,失败不阻断主流程
func (s *submissionService) recordSubmissionAudit(ctx context.Context, action *model.PendingActionModel, fastPath bool) {
	details := map[string]interface{}{
		"action_type": action.ActionType,
		"status":      action.Status,
		"fast_path":   fastPath,
	}
	if action.TargetID != nil {
		details["target_id"] = *action.TargetID
	}
	if err := s.auditSvc.RecordAction(ctx, action.RequestedBy, "submit_pending_action", "pending_action", action.ID, details); err != nil {
		s.logger.WithError(err).Warn("Failed to record submission audit log")
	}
}
