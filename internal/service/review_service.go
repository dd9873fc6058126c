package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/metrics"
	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/memorialops/cemetery-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 审核决定
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ReviewRequest 审核请求入参
type ReviewRequest struct {
	Decision        string `json:"action" binding:"required"` // approve/reject
	AdminNotes      string `json:"admin_notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// ReviewResult 审核结果
// Executed 显式向管理员暴露执行是否完成,审批通过但执行失败时为 false
type ReviewResult struct {
	Action   *model.PendingActionModel
	Executed bool
}

// ReviewService 审核服务
// pending → approved/rejected 的状态机入口,条件更新保证并发下恰好一次转换
type ReviewService interface {
	// Review 审核一条待审批操作
	// 非 pending 或已过期的记录返回 ConflictError;
	// 批准后的执行失败以 ExecutionError 随结果返回,审核转换不回滚
	Review(ctx context.Context, actionID string, adminID string, req *ReviewRequest) (*ReviewResult, error)
	// ExecuteRetry 对 approved 未执行的记录手工重试执行
	ExecuteRetry(ctx context.Context, actionID string, adminID string) (*ReviewResult, error)
}

// reviewService 审核服务实现
type reviewService struct {
	actionRepo repository.PendingActionRepository
	executor   ActionExecutor
	auditSvc   AuditLogService
	logger     *logrus.Logger
}

// NewReviewService 创建审核服务
func NewReviewService(
	actionRepo repository.PendingActionRepository,
	executor ActionExecutor,
	auditSvc AuditLogService,
	logger *logrus.Logger,
) ReviewService {
	return &reviewService{
		actionRepo: actionRepo,
		executor:   executor,
		auditSvc:   auditSvc,
		logger:     logger,
	}
}

// Review 审核待审批操作
func (s *reviewService) Review(ctx context.Context, actionID string, adminID string, req *ReviewRequest) (*ReviewResult, error) {
	if err := utils.ValidateActionID(actionID); err != nil {
		return nil, apperr.Validation("invalid action id", "action_id")
	}
	if adminID == "" {
		return nil, apperr.Validation("reviewer identity is required", "reviewed_by")
	}

	var status string
	switch req.Decision {
	case DecisionApprove:
		status = model.StatusApproved
	case DecisionReject:
		if strings.TrimSpace(req.RejectionReason) == "" {
			return nil, apperr.Validation("rejection reason is required", "rejection_reason")
		}
		status = model.StatusRejected
	default:
		return nil, apperr.Validation(fmt.Sprintf("invalid review decision %q", req.Decision), "action")
	}

	action, err := s.actionRepo.FindByID(actionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("pending action %q not found", actionID))
		}
		return nil, fmt.Errorf("failed to load pending action: %w", err)
	}

	now := time.Now()
	// 条件更新抢状态机转换,并发审核只有一方生效
	won, err := s.actionRepo.MarkReviewed(actionID, &repository.ReviewUpdate{
		Status:          status,
		ReviewedBy:      adminID,
		ReviewedAt:      now,
		AdminNotes:      utils.SanitizeString(req.AdminNotes),
		RejectionReason: utils.SanitizeString(req.RejectionReason),
	}, now)
	if err != nil {
		return nil, fmt.Errorf("failed to apply review transition: %w", err)
	}
	if !won {
		return nil, s.conflictFor(action, now)
	}

	action.Status = status
	action.ReviewedBy = adminID
	action.ReviewedAt = &now
	action.AdminNotes = utils.SanitizeString(req.AdminNotes)
	action.RejectionReason = utils.SanitizeString(req.RejectionReason)

	metrics.RecordReview(req.Decision)
	s.recordReviewAudit(ctx, action, adminID, req.Decision)
	s.logger.WithFields(logrus.Fields{
		"action_id":   actionID,
		"reviewed_by": adminID,
		"decision":    req.Decision,
	}).Info("Pending action reviewed")

	result := &ReviewResult{Action: action}
	if status != model.StatusApproved {
		return result, nil
	}

	// 审核转换与执行是两段独立工作,执行失败不回滚审批
	if execErr := s.executor.Execute(action); execErr != nil {
		return result, execErr
	}
	result.Executed = true
	return result, nil
}

// ExecuteRetry 手工重试执行已批准的操作
func (s *reviewService) ExecuteRetry(ctx context.Context, actionID string, adminID string) (*ReviewResult, error) {
	if err := utils.ValidateActionID(actionID); err != nil {
		return nil, apperr.Validation("invalid action id", "action_id")
	}

	action, err := s.actionRepo.FindByID(actionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("pending action %q not found", actionID))
		}
		return nil, fmt.Errorf("failed to load pending action: %w", err)
	}

	result := &ReviewResult{Action: action}
	if err := s.executor.Execute(action); err != nil {
		return result, err
	}
	result.Executed = true

	s.recordReviewAudit(ctx, action, adminID, "execute_retry")
	return result, nil
}

// conflictFor 解释条件更新失败的原因,过期与已审核同样按冲突上报
func (s *reviewService) conflictFor(action *model.PendingActionModel, now time.Time) error {
	fresh, err := s.actionRepo.FindByID(action.ID)
	if err == nil {
		action = fresh
	}
	if action.IsExpiredAt(now) || action.Status == model.StatusExpired {
		return apperr.Conflict(fmt.Sprintf("action %s has expired and can no longer be reviewed", action.ID))
	}
	return apperr.Conflict(fmt.Sprintf("action %s was already reviewed (status %s)", action.ID, action.Status))
}

// recordReviewAudit 写入审核审计日志,失败不阻断主流程
func (s *reviewService) recordReviewAudit(ctx context.Context, action *model.PendingActionModel, adminID string, decision string) {
	details := map[string]interface{}{
		"action_type": action.ActionType,
		"decision":    decision,
		"status":      action.Status,
	}
	if err := s.auditSvc.RecordAction(ctx, adminID, "review_pending_action", "pending_action", action.ID, details); err != nil {
		s.logger.WithError(err).Warn("Failed to record review audit log")
	}
}
