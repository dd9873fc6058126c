package service

import (
	"fmt"
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/repository"
)

// ApprovalStats 审批统计
// 每次调用从存储实时重算,不做缓存
type ApprovalStats struct {
	PendingCount         int64   `json:"pending_count"`
	ApprovedToday        int64   `json:"approved_today"`
	RejectedToday        int64   `json:"rejected_today"`
	ApprovalRate         float64 `json:"approval_rate"`  // 百分比
	RejectionRate        float64 `json:"rejection_rate"` // 百分比
	AvgApprovalTimeHours float64 `json:"avg_approval_time_hours"`
	ExpiringSoon         int64   `json:"expiring_soon"` // 24 小时内将过期的 pending
}

// StatsService 审批统计服务
type StatsService interface {
	GetApprovalStats() (*ApprovalStats, error)
}

// statsService 审批统计服务实现
type statsService struct {
	actionRepo repository.PendingActionRepository
}

// NewStatsService 创建审批统计服务
func NewStatsService(actionRepo repository.PendingActionRepository) StatsService {
	return &statsService{actionRepo: actionRepo}
}

// expiringSoonWindow 即将过期的提醒窗口
const expiringSoonWindow = 24 * time.Hour

// GetApprovalStats 计算审批统计
// "今日"按服务器本地时区的自然日计
func (s *statsService) GetApprovalStats() (*ApprovalStats, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	pending, err := s.actionRepo.CountByStatus(model.StatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending actions: %w", err)
	}
	approved, err := s.actionRepo.CountReviewedInWindow(model.StatusApproved, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}
	rejected, err := s.actionRepo.CountReviewedInWindow(model.StatusRejected, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count rejections: %w", err)
	}
	expiring, err := s.actionRepo.CountExpiringSoon(now, expiringSoonWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to count expiring actions: %w", err)
	}

	stats := &ApprovalStats{
		PendingCount:  pending,
		ApprovedToday: approved,
		RejectedToday: rejected,
		ExpiringSoon:  expiring,
	}
	if total := approved + rejected; total > 0 {
		stats.ApprovalRate = float64(approved) / float64(total) * 100
		stats.RejectionRate = float64(rejected) / float64(total) * 100
	}

	durations, err := s.actionRepo.ReviewDurationsInWindow(dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load review durations: %w", err)
	}
	if len(durations) > 0 {
		var total time.Duration
		for _, d := range durations {
			total += d.ReviewedAt.Sub(d.CreatedAt)
		}
		stats.AvgApprovalTimeHours = total.Hours() / float64(len(durations))
	}
	return stats, nil
}
