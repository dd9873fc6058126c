package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/schema"
	"github.com/memorialops/cemetery-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStats_Empty 测试空库统计全零
func TestStats_Empty(t *testing.T) {
	env := newTestEnv(t, nil)

	stats, err := env.stats.GetApprovalStats()
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
	assert.Zero(t, stats.ApprovedToday)
	assert.Zero(t, stats.RejectedToday)
	// 分母为零时比率为 0 而不是 NaN
	assert.Zero(t, stats.ApprovalRate)
	assert.Zero(t, stats.RejectionRate)
	assert.Zero(t, stats.AvgApprovalTimeHours)
}

// TestStats_Counts 测试各计数与比率
func TestStats_Counts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"P1"}`)

	for i, decision := range []string{service.DecisionApprove, service.DecisionApprove, service.DecisionReject} {
		action := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"R"}`)
		req := &service.ReviewRequest{Decision: decision}
		if decision == service.DecisionReject {
			req.RejectionReason = "duplicate entry"
		}
		_, err := env.review.Review(ctx, action.ID, "admin-001", req)
		require.NoError(t, err, i)
	}

	stats, err := env.stats.GetApprovalStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingCount)
	assert.Equal(t, int64(2), stats.ApprovedToday)
	assert.Equal(t, int64(1), stats.RejectedToday)
	assert.InDelta(t, 66.67, stats.ApprovalRate, 0.01)
	assert.InDelta(t, 33.33, stats.RejectionRate, 0.01)
	assert.GreaterOrEqual(t, stats.AvgApprovalTimeHours, 0.0)
}

// TestStats_PendingExcludesExpired 测试待审计数与惰性过期一致
func TestStats_PendingExcludesExpired(t *testing.T) {
	env := newTestEnv(t, nil)

	submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"live"}`)
	stale := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"stale"}`)
	require.NoError(t, env.db.Model(&model.PendingActionModel{}).
		Where("id = ?", stale.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	stats, err := env.stats.GetApprovalStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingCount)

	// 清扫后计数不变,外部可观察行为一致
	_, err = env.actionRepo.SweepExpired(time.Now())
	require.NoError(t, err)

	stats, err = env.stats.GetApprovalStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingCount)
}

// TestStats_AvgApprovalTime 测试平均审核时长
func TestStats_AvgApprovalTime(t *testing.T) {
	env := newTestEnv(t, nil)

	action := submitPending(t, env, schema.ActionClientCreate, nil, `{"name":"A"}`)
	// 提交时间拨回 2 小时前
	created := time.Now().Add(-2 * time.Hour)
	require.NoError(t, env.db.Model(&model.PendingActionModel{}).
		Where("id = ?", action.ID).
		Update("created_at", created).Error)

	_, err := env.review.Review(context.Background(), action.ID, "admin-001", &service.ReviewRequest{
		Decision: service.DecisionApprove,
	})
	require.NoError(t, err)

	stats, err := env.stats.GetApprovalStats()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, stats.AvgApprovalTimeHours, 0.1)
}
