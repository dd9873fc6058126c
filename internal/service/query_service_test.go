package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/schema"
	"github.com/memorialops/cemetery-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestListMine 测试员工只能看到自己的提交
func TestListMine(t *testing.T) {
	env := newTestEnv(t, nil)

	mine := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"Maria Santos"}`)
	_, err := env.submission.Submit(context.Background(), &service.SubmitRequest{
		ActionType: schema.ActionClientCreate,
		ChangeData: []byte(`{"name":"Pedro Reyes"}`),
	}, "emp-002", "")
	require.NoError(t, err)

	actions, err := env.query.ListMine("emp-001", nil)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, mine.ID, actions[0].ID)
}

// TestListMine_StatusFilter 测试状态过滤
func TestListMine_StatusFilter(t *testing.T) {
	env := newTestEnv(t, nil)

	pending := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"A"}`)
	approved := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"B"}`)
	_, err := env.review.Review(context.Background(), approved.ID, "admin-001", &service.ReviewRequest{
		Decision: service.DecisionApprove,
	})
	require.NoError(t, err)

	actions, err := env.query.ListMine("emp-001", []string{model.StatusPending})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, pending.ID, actions[0].ID)

	_, err = env.query.ListMine("emp-001", []string{"bogus"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

// TestListAll_ExpiredPresentation 测试过期记录按 expired 呈现
func TestListAll_ExpiredPresentation(t *testing.T) {
	env := newTestEnv(t, nil)

	stale := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"A"}`)
	submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"B"}`)

	// stale 的有效期已过,但存储状态仍是 pending
	require.NoError(t, env.db.Model(&model.PendingActionModel{}).
		Where("id = ?", stale.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	// 查询 expired 捞到惰性过期的记录
	actions, err := env.query.ListAll(&service.ListOptions{Statuses: []string{model.StatusExpired}})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, stale.ID, actions[0].ID)
	assert.Equal(t, model.StatusExpired, actions[0].Status)

	// 查询 pending 时已过期的记录被排除
	actions, err = env.query.ListAll(&service.ListOptions{Statuses: []string{model.StatusPending}})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.NotEqual(t, stale.ID, actions[0].ID)
}

// TestListAll_Filters 测试类型过滤与排序校验
func TestListAll_Filters(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedClient(t, "client-1", "Old", "")

	submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"A"}`)
	target := "client-1"
	submitPending(t, env, schema.ActionClientUpdate, &target, `{"name":"New"}`)

	actions, err := env.query.ListAll(&service.ListOptions{ActionType: schema.ActionClientUpdate})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, schema.ActionClientUpdate, actions[0].ActionType)

	_, err = env.query.ListAll(&service.ListOptions{SortBy: "change_data"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

// TestGet_Ownership 测试详情查询的归属校验
func TestGet_Ownership(t *testing.T) {
	env := newTestEnv(t, nil)
	action := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"Maria Santos"}`)

	// 本人可见
	found, err := env.query.Get(action.ID, "emp-001")
	require.NoError(t, err)
	assert.Equal(t, action.ID, found.ID)

	// 他人不可见,按不存在处理
	_, err = env.query.Get(action.ID, "emp-002")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	// 管理员路径(空 requesterID)可见
	found, err = env.query.Get(action.ID, "")
	require.NoError(t, err)
	assert.Equal(t, action.ID, found.ID)

	_, err = env.query.Get("act-ghost", "")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
