package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/policy"
	"github.com/memorialops/cemetery-gin/internal/schema"
	"github.com/memorialops/cemetery-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSubmit_PendingPath 测试常规提交进入审批队列
func TestSubmit_PendingPath(t *testing.T) {
	env := newTestEnv(t, nil)

	action, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionClientCreate,
		ChangeData: json.RawMessage(`{"name":"Maria Santos","email":"maria@example.com"}`),
		Notes:      "walk-in inquiry",
	}, "emp-001", "Ana Reyes")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, action.Status)
	assert.False(t, action.IsExecuted)
	assert.Empty(t, action.ReviewedBy)
	assert.Nil(t, action.TargetID)
	assert.True(t, action.ExpiresAt.After(action.CreatedAt))

	// 目标实体未被变更
	var count int64
	env.db.Model(&model.ClientModel{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// 审计记录已写入
	var audits int64
	env.db.Model(&model.AuditLogModel{}).Where("resource_id = ?", action.ID).Count(&audits)
	assert.Equal(t, int64(1), audits)
}

// TestSubmit_ValidationErrors 测试非法负载被拒绝且不落库
func TestSubmit_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	cases := []*service.SubmitRequest{
		{ActionType: "unknown_type", ChangeData: json.RawMessage(`{}`)},
		{ActionType: schema.ActionClientCreate, ChangeData: json.RawMessage(`{"email":"no-name@example.com"}`)},
		{ActionType: schema.ActionClientCreate, ChangeData: json.RawMessage(`not json`)},
		{ActionType: schema.ActionClientUpdate, ChangeData: json.RawMessage(`{"name":"x"}`)}, // 缺 target_id
		{ActionType: schema.ActionClientCreate, ChangeData: json.RawMessage(`{"name":"x"}`), Priority: "asap"},
	}
	for _, req := range cases {
		_, err := env.submission.Submit(ctx, req, "emp-001", "")
		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err), req.ActionType)
	}

	// 创建类操作不允许 target_id
	target := "client-1"
	_, err := env.submission.Submit(ctx, &service.SubmitRequest{
		ActionType: schema.ActionClientCreate,
		TargetID:   &target,
		ChangeData: json.RawMessage(`{"name":"x"}`),
	}, "emp-001", "")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	var count int64
	env.db.Model(&model.PendingActionModel{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestSubmit_SnapshotKeys 测试 previous_data 字段集与 change_data 一致
func TestSubmit_SnapshotKeys(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedClient(t, "client-1", "Old Name", "old@example.com")

	target := "client-1"
	action, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionClientUpdate,
		TargetID:   &target,
		ChangeData: json.RawMessage(`{"name":"New Name","email":"new@example.com"}`),
	}, "emp-001", "")
	require.NoError(t, err)

	var change, prev map[string]interface{}
	require.NoError(t, json.Unmarshal(action.ChangeData, &change))
	require.NoError(t, json.Unmarshal(action.PreviousData, &prev))

	assert.Len(t, prev, len(change))
	for key := range change {
		assert.Contains(t, prev, key)
	}
	assert.Equal(t, "Old Name", prev["name"])
	assert.Equal(t, "old@example.com", prev["email"])
}

// TestSubmit_TargetMissing 测试快照目标不存在返回 NotFoundError
func TestSubmit_TargetMissing(t *testing.T) {
	env := newTestEnv(t, nil)

	target := "client-ghost"
	_, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionClientUpdate,
		TargetID:   &target,
		ChangeData: json.RawMessage(`{"name":"New Name"}`),
	}, "emp-001", "")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	var count int64
	env.db.Model(&model.PendingActionModel{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestSubmit_FastPath 测试免审快速通道
func TestSubmit_FastPath(t *testing.T) {
	env := newTestEnv(t, policy.StaticSource{schema.ActionClientCreate: false})

	action, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionClientCreate,
		ChangeData: json.RawMessage(`{"name":"Maria Santos"}`),
	}, "emp-001", "")
	require.NoError(t, err)

	// 审计连续性:快速通道同样落一条审批记录
	assert.Equal(t, model.StatusApproved, action.Status)
	assert.Equal(t, model.SystemReviewer, action.ReviewedBy)
	assert.NotNil(t, action.ReviewedAt)
	assert.True(t, action.IsExecuted)
	assert.NotNil(t, action.ExecutedAt)

	// 变更已同步应用
	var clients int64
	env.db.Model(&model.ClientModel{}).Where("name = ?", "Maria Santos").Count(&clients)
	assert.Equal(t, int64(1), clients)

	stored, err := env.actionRepo.FindByID(action.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsExecuted)
}

// TestSubmit_FastPathExecutionFailure 测试快速通道执行失败保持可重试
func TestSubmit_FastPathExecutionFailure(t *testing.T) {
	env := newTestEnv(t, policy.StaticSource{schema.ActionBurialCreate: false})
	// 不预置墓位,执行必然失败

	action, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionBurialCreate,
		ChangeData: json.RawMessage(`{"deceased_name":"Jose Cruz","lot_id":"lot-missing"}`),
	}, "emp-001", "")
	require.Error(t, err)
	assert.True(t, apperr.IsExecution(err))
	require.NotNil(t, action)

	stored, err := env.actionRepo.FindByID(action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.False(t, stored.IsExecuted)
}

// TestSubmit_PolicyFailureFailsClosed 测试策略故障兜底进入审批队列
func TestSubmit_PolicyFailureFailsClosed(t *testing.T) {
	env := newTestEnv(t, failingSource{})

	action, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionClientCreate,
		ChangeData: json.RawMessage(`{"name":"Maria Santos"}`),
	}, "emp-001", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, action.Status)
	assert.False(t, action.IsExecuted)
}

// TestCheckApprovalRequired 测试预检查
func TestCheckApprovalRequired(t *testing.T) {
	env := newTestEnv(t, policy.StaticSource{schema.ActionContentUpdate: false})

	required, err := env.submission.CheckApprovalRequired(schema.ActionContentUpdate)
	require.NoError(t, err)
	assert.False(t, required)

	required, err = env.submission.CheckApprovalRequired(schema.ActionClientCreate)
	require.NoError(t, err)
	assert.True(t, required)

	_, err = env.submission.CheckApprovalRequired("unknown_type")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

// TestCheckApprovalRequired_PolicyFailure 测试预检查在策略故障下按需要审批返回
func TestCheckApprovalRequired_PolicyFailure(t *testing.T) {
	env := newTestEnv(t, failingSource{})

	required, err := env.submission.CheckApprovalRequired(schema.ActionContentUpdate)
	require.NoError(t, err)
	assert.True(t, required)
}

// TestSubmit_NotesStoredVerbatim 测试提交备注按原样落库
func TestSubmit_NotesStoredVerbatim(t *testing.T) {
	env := newTestEnv(t, nil)

	notes := `family can't visit until Sunday & asked for "plot A-3"`
	action, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionClientCreate,
		ChangeData: json.RawMessage(`{"name":"Maria Santos"}`),
		Notes:      notes,
	}, "emp-001", "Ana Reyes")
	require.NoError(t, err)

	stored, err := env.actionRepo.FindByID(action.ID)
	require.NoError(t, err)
	assert.Equal(t, notes, stored.Notes)
}
