package model

import (
	"encoding/json"
	"errors"
	"time"
)

// 待审批操作状态
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// 待审批操作优先级
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// SystemReviewer 免审批快速通道写入 reviewed_by 时使用的标识
const SystemReviewer = "system"

// PendingActionModel 待审批操作数据模型
// 记录员工提交的每一个变更请求及其完整生命周期,永久保留作为审计历史
type PendingActionModel struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ActionType      string          `gorm:"type:varchar(32);not null;index" json:"action_type"`
	TargetEntity    string          `gorm:"type:varchar(32);not null" json:"target_entity"`
	TargetID        *string         `gorm:"type:varchar(64);index" json:"target_id,omitempty"` // 创建类操作为空
	ChangeData      json.RawMessage `gorm:"type:jsonb;not null" json:"change_data"`
	PreviousData    json.RawMessage `gorm:"type:jsonb" json:"previous_data,omitempty"` // 仅更新类操作存在
	RequestedBy     string          `gorm:"type:varchar(64);not null;index" json:"requested_by"`
	RequestedByName string          `gorm:"type:varchar(128)" json:"requested_by_name"`
	Status          string          `gorm:"type:varchar(32);not null;index" json:"status"`
	Priority        string          `gorm:"type:varchar(16);not null;default:'normal'" json:"priority"`
	Notes           string          `gorm:"type:text" json:"notes"`
	AdminNotes      string          `gorm:"type:text" json:"admin_notes"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	ExpiresAt       time.Time       `gorm:"not null;index" json:"expires_at"`
	ReviewedBy      string          `gorm:"type:varchar(64)" json:"reviewed_by"`
	ReviewedAt      *time.Time      `gorm:"index" json:"reviewed_at,omitempty"`
	IsExecuted      bool            `gorm:"not null;default:false" json:"is_executed"`
	ExecutedAt      *time.Time      `json:"executed_at,omitempty"`
}

// TableName 指定表名
func (PendingActionModel) TableName() string {
	return "pending_actions"
}

// Validate 验证待审批操作模型
func (pam *PendingActionModel) Validate() error {
	if pam.ID == "" {
		return errors.New("pending action ID is required")
	}
	if pam.ActionType == "" {
		return errors.New("action type is required")
	}
	if pam.TargetEntity == "" {
		return errors.New("target entity is required")
	}
	if len(pam.ChangeData) == 0 {
		return errors.New("change data is required")
	}
	if pam.RequestedBy == "" {
		return errors.New("requester ID is required")
	}
	if pam.Status == "" {
		return errors.New("status is required")
	}
	// previous_data 与 target_id 必须同时存在或同时缺失
	if pam.TargetID != nil && len(pam.PreviousData) == 0 {
		return errors.New("previous data is required for update actions")
	}
	if pam.TargetID == nil && len(pam.PreviousData) > 0 {
		return errors.New("previous data is not allowed for create actions")
	}
	// is_executed 只允许出现在 approved 状态
	if pam.IsExecuted && pam.Status != StatusApproved {
		return errors.New("executed action must be in approved status")
	}
	return nil
}

// IsTerminal 判断是否处于终态
func (pam *PendingActionModel) IsTerminal() bool {
	return pam.Status != StatusPending
}

// IsExpiredAt 判断在给定时刻是否已过期(仅对 pending 有意义)
// 审核条件更新要求 expires_at > now,这里取反保持同一边界
func (pam *PendingActionModel) IsExpiredAt(now time.Time) bool {
	return pam.Status == StatusPending && !pam.ExpiresAt.After(now)
}

// EffectiveStatus 返回对外可见状态,pending 且已过期的记录按 expired 呈现
func (pam *PendingActionModel) EffectiveStatus(now time.Time) string {
	if pam.IsExpiredAt(now) {
		return StatusExpired
	}
	return pam.Status
}

// ValidStatus 校验状态取值
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// ValidPriority 校验优先级取值
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
