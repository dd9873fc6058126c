package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/utils"
	"gorm.io/gorm"
)

// PendingActionRepository 待审批操作仓储接口
type PendingActionRepository interface {
	Create(action *model.PendingActionModel) error
	FindByID(id string) (*model.PendingActionModel, error)
	FindByRequester(requesterID string, statuses []string) ([]*model.PendingActionModel, error)
	FindByFilter(filter *PendingActionFilter) ([]*model.PendingActionModel, error)
	// MarkReviewed 条件更新 pending → approved/rejected
	// 仅当记录仍为 pending 且未过期时生效,返回是否抢到本次转换
	MarkReviewed(id string, review *ReviewUpdate, now time.Time) (bool, error)
	// MarkExecuted 条件更新 is_executed=false → true,返回是否由本次调用完成执行
	MarkExecuted(id string, executedAt time.Time) (bool, error)
	// SweepExpired 批量将已过期的 pending 记录写为 expired,返回清扫条数
	SweepExpired(now time.Time) (int64, error)
	// FindRetryable 查找已审批但尚未执行成功的记录
	FindRetryable(limit int) ([]*model.PendingActionModel, error)
	CountByStatus(status string, now time.Time) (int64, error)
	// CountExpiringSoon 统计 within 时长内将要过期的 pending 记录
	CountExpiringSoon(now time.Time, within time.Duration) (int64, error)
	CountReviewedInWindow(status string, from, to time.Time) (int64, error)
	// ReviewDurationsInWindow 返回窗口内已审核记录的 (created_at, reviewed_at) 对
	ReviewDurationsInWindow(from, to time.Time) ([]ReviewDuration, error)
}

// PendingActionFilter 待审批操作查询过滤器
type PendingActionFilter struct {
	Statuses     []string
	ActionType   *string
	RequestedBy  *string
	ChangedSince *time.Time // 轮询增量查询: created_at/reviewed_at/executed_at 任一晚于该时刻
	SortBy       string     // created_at/priority/expires_at/reviewed_at
	SortOrder    string     // asc/desc
	Limit        int
}

// ReviewUpdate 审核转换写入的字段
type ReviewUpdate struct {
	Status          string // approved/rejected
	ReviewedBy      string
	ReviewedAt      time.Time
	AdminNotes      string
	RejectionReason string
}

// ReviewDuration 审核耗时统计样本
type ReviewDuration struct {
	CreatedAt  time.Time
	ReviewedAt time.Time
}

// pendingActionRepository 待审批操作仓储实现
type pendingActionRepository struct {
	db *gorm.DB
}

// NewPendingActionRepository 创建待审批操作仓储
func NewPendingActionRepository(db *gorm.DB) PendingActionRepository {
	return &pendingActionRepository{db: db}
}

// Create 持久化新的待审批操作
func (r *pendingActionRepository) Create(action *model.PendingActionModel) error {
	if err := action.Validate(); err != nil {
		return err
	}
	return r.db.Create(action).Error
}

// FindByID 根据 ID 查找待审批操作
func (r *pendingActionRepository) FindByID(id string) (*model.PendingActionModel, error) {
	var action model.PendingActionModel
	if err := r.db.Where("id = ?", id).First(&action).Error; err != nil {
		return nil, err
	}
	return &action, nil
}

// FindByRequester 查找某员工提交的操作
func (r *pendingActionRepository) FindByRequester(requesterID string, statuses []string) ([]*model.PendingActionModel, error) {
	var actions []*model.PendingActionModel
	query := r.db.Where("requested_by = ?", requesterID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at DESC").Find(&actions).Error
	return actions, err
}

// priorityOrderExpr 优先级排序表达式,urgent 最前
const priorityOrderExpr = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END"

// FindByFilter 根据过滤器查找待审批操作
func (r *pendingActionRepository) FindByFilter(filter *PendingActionFilter) ([]*model.PendingActionModel, error) {
	var actions []*model.PendingActionModel
	query := r.db.Model(&model.PendingActionModel{})

	if filter != nil {
		if len(filter.Statuses) > 0 {
			query = query.Where("status IN ?", filter.Statuses)
		}
		if filter.ActionType != nil {
			query = query.Where("action_type = ?", *filter.ActionType)
		}
		if filter.RequestedBy != nil {
			query = query.Where("requested_by = ?", *filter.RequestedBy)
		}
		if filter.ChangedSince != nil {
			since := *filter.ChangedSince
			query = query.Where("created_at > ? OR reviewed_at > ? OR executed_at > ?", since, since, since)
		}

		// 排序字段白名单校验,防止注入
		sortBy := filter.SortBy
		if sortBy == "" {
			sortBy = "created_at"
		}
		if err := utils.ValidateSortField(sortBy); err != nil {
			return nil, fmt.Errorf("invalid sort field: %w", err)
		}
		order := filter.SortOrder
		if order == "" {
			order = "desc"
		}
		if err := utils.ValidateSortOrder(order); err != nil {
			return nil, fmt.Errorf("invalid sort order: %w", err)
		}

		if sortBy == "priority" {
			// 优先级按业务顺序排序而非字典序
			dir := ""
			if strings.EqualFold(order, "desc") {
				dir = " DESC"
			}
			query = query.Order(priorityOrderExpr + dir).Order("created_at DESC")
		} else {
			query = query.Order(fmt.Sprintf("%s %s", sortBy, strings.ToUpper(order)))
		}

		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	} else {
		query = query.Order("created_at DESC")
	}

	err := query.Find(&actions).Error
	return actions, err
}

// MarkReviewed 审核状态转换
// WHERE status='pending' AND expires_at > now 的条件更新保证并发审核下恰好一方成功
func (r *pendingActionRepository) MarkReviewed(id string, review *ReviewUpdate, now time.Time) (bool, error) {
	result := r.db.Model(&model.PendingActionModel{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, model.StatusPending, now).
		Updates(map[string]interface{}{
			"status":           review.Status,
			"reviewed_by":      review.ReviewedBy,
			"reviewed_at":      review.ReviewedAt,
			"admin_notes":      review.AdminNotes,
			"rejection_reason": review.RejectionReason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkExecuted 执行标记
// WHERE is_executed=false 的条件更新保证变更至多应用一次
func (r *pendingActionRepository) MarkExecuted(id string, executedAt time.Time) (bool, error) {
	result := r.db.Model(&model.PendingActionModel{}).
		Where("id = ? AND status = ? AND is_executed = ?", id, model.StatusApproved, false).
		Updates(map[string]interface{}{
			"is_executed": true,
			"executed_at": executedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SweepExpired 过期清扫
func (r *pendingActionRepository) SweepExpired(now time.Time) (int64, error) {
	result := r.db.Model(&model.PendingActionModel{}).
		Where("status = ? AND expires_at <= ?", model.StatusPending, now).
		Update("status", model.StatusExpired)
	return result.RowsAffected, result.Error
}

// FindRetryable 查找可补偿执行的记录
func (r *pendingActionRepository) FindRetryable(limit int) ([]*model.PendingActionModel, error) {
	var actions []*model.PendingActionModel
	query := r.db.Where("status = ? AND is_executed = ?", model.StatusApproved, false).
		Order("reviewed_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&actions).Error
	return actions, err
}

// CountByStatus 按状态计数
// pending 计数排除已过期记录,与惰性过期语义保持一致
func (r *pendingActionRepository) CountByStatus(status string, now time.Time) (int64, error) {
	var count int64
	query := r.db.Model(&model.PendingActionModel{}).Where("status = ?", status)
	if status == model.StatusPending {
		query = query.Where("expires_at > ?", now)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountExpiringSoon 统计即将过期的待审批记录
func (r *pendingActionRepository) CountExpiringSoon(now time.Time, within time.Duration) (int64, error) {
	var count int64
	err := r.db.Model(&model.PendingActionModel{}).
		Where("status = ? AND expires_at > ? AND expires_at <= ?", model.StatusPending, now, now.Add(within)).
		Count(&count).Error
	return count, err
}

// CountReviewedInWindow 统计窗口内审核完成的记录数
func (r *pendingActionRepository) CountReviewedInWindow(status string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.PendingActionModel{}).
		Where("status = ? AND reviewed_at >= ? AND reviewed_at < ?", status, from, to).
		Count(&count).Error
	return count, err
}

// ReviewDurationsInWindow 读取窗口内审核耗时样本
func (r *pendingActionRepository) ReviewDurationsInWindow(from, to time.Time) ([]ReviewDuration, error) {
	var rows []ReviewDuration
	err := r.db.Model(&model.PendingActionModel{}).
		Select("created_at, reviewed_at").
		Where("reviewed_at >= ? AND reviewed_at < ? AND status IN ?", from, to,
			[]string{model.StatusApproved, model.StatusRejected}).
		Scan(&rows).Error
	return rows, err
}
