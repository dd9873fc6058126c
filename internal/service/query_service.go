package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/memorialops/cemetery-gin/internal/utils"
	"gorm.io/gorm"
)

// ListOptions 管理端列表查询选项
type ListOptions struct {
	Statuses     []string
	ActionType   string
	RequestedBy  string
	ChangedSince *time.Time
	SortBy       string
	SortOrder    string
	Limit        int
}

// QueryService 查询服务
// 只读视图;pending 且已过期的记录一律按 expired 呈现
type QueryService interface {
	// ListMine 查询某员工自己提交的操作
	ListMine(requesterID string, statuses []string) ([]*model.PendingActionModel, error)
	// ListAll 管理端全量查询,支持状态/类型/排序过滤
	ListAll(opts *ListOptions) ([]*model.PendingActionModel, error)
	// Get 查询单条操作,requesterID 非空时校验归属(管理员传空跳过)
	Get(actionID string, requesterID string) (*model.PendingActionModel, error)
}

// queryService 查询服务实现
type queryService struct {
	actionRepo repository.PendingActionRepository
}

// NewQueryService 创建查询服务
func NewQueryService(actionRepo repository.PendingActionRepository) QueryService {
	return &queryService{actionRepo: actionRepo}
}

// ListMine 查询员工自己提交的操作
func (s *queryService) ListMine(requesterID string, statuses []string) ([]*model.PendingActionModel, error) {
	if requesterID == "" {
		return nil, apperr.Validation("requester identity is required", "requested_by")
	}
	for _, st := range statuses {
		if !model.ValidStatus(st) {
			return nil, apperr.Validation(fmt.Sprintf("invalid status %q", st), "status")
		}
	}

	actions, err := s.actionRepo.FindByRequester(requesterID, widenStatuses(statuses))
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return presentAll(actions, statuses), nil
}

// ListAll 管理端全量查询
func (s *queryService) ListAll(opts *ListOptions) ([]*model.PendingActionModel, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	for _, st := range opts.Statuses {
		if !model.ValidStatus(st) {
			return nil, apperr.Validation(fmt.Sprintf("invalid status %q", st), "status")
		}
	}
	if opts.SortBy != "" {
		if err := utils.ValidateSortField(opts.SortBy); err != nil {
			return nil, apperr.Validation("invalid sort field", "sort_by")
		}
	}
	if opts.SortOrder != "" {
		if err := utils.ValidateSortOrder(opts.SortOrder); err != nil {
			return nil, apperr.Validation("invalid sort order", "sort_order")
		}
	}

	filter := &repository.PendingActionFilter{
		Statuses:     widenStatuses(opts.Statuses),
		ChangedSince: opts.ChangedSince,
		SortBy:       opts.SortBy,
		SortOrder:    opts.SortOrder,
		Limit:        opts.Limit,
	}
	if opts.ActionType != "" {
		filter.ActionType = &opts.ActionType
	}
	if opts.RequestedBy != "" {
		filter.RequestedBy = &opts.RequestedBy
	}

	actions, err := s.actionRepo.FindByFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return presentAll(actions, opts.Statuses), nil
}

// Get 查询单条操作
func (s *queryService) Get(actionID string, requesterID string) (*model.PendingActionModel, error) {
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
	if requesterID != "" && action.RequestedBy != requesterID {
		// 非本人提交的记录对员工不可见
		return nil, apperr.NotFound(fmt.Sprintf("pending action %q not found", actionID))
	}

	action.Status = action.EffectiveStatus(time.Now())
	return action, nil
}

// widenStatuses 扩展存储层状态过滤
// 过期采用惰性写入,存量 expired 记录可能仍以 pending 落库,
// 查询 expired 时需连带捞出 pending 再按呈现状态收敛
func widenStatuses(statuses []string) []string {
	if len(statuses) == 0 {
		return statuses
	}
	seen := make(map[string]bool, len(statuses)+1)
	out := make([]string, 0, len(statuses)+1)
	for _, st := range statuses {
		if !seen[st] {
			seen[st] = true
			out = append(out, st)
		}
		if st == model.StatusExpired && !seen[model.StatusPending] {
			seen[model.StatusPending] = true
			out = append(out, model.StatusPending)
		}
	}
	return out
}

// presentAll 统一呈现状态并二次过滤
// 惰性过期使 pending 查询可能捞出实际已过期的记录,这里按请求的状态集收敛
func presentAll(actions []*model.PendingActionModel, statuses []string) []*model.PendingActionModel {
	now := time.Now()
	if len(statuses) == 0 {
		for _, a := range actions {
			a.Status = a.EffectiveStatus(now)
		}
		return actions
	}

	wanted := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	out := make([]*model.PendingActionModel, 0, len(actions))
	for _, a := range actions {
		a.Status = a.EffectiveStatus(now)
		if wanted[a.Status] {
			out = append(out, a)
		}
	}
	return out
}
