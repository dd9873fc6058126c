package repository_test

import (
	"sync"
	"testing"
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupActionDB 创建待审批操作测试数据库
func setupActionDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存库单连接,并发写入串行化
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.PendingActionModel{})
	require.NoError(t, err)

	return db
}

// newPendingAction 构造一条有效的 pending 记录
func newPendingAction(id string, expiresAt time.Time) *model.PendingActionModel {
	return &model.PendingActionModel{
		ID:           id,
		ActionType:   "client_create",
		TargetEntity: "client",
		ChangeData:   []byte(`{"name":"Juan Dela Cruz"}`),
		RequestedBy:  "emp-001",
		Status:       model.StatusPending,
		Priority:     model.PriorityNormal,
		CreatedAt:    time.Now(),
		ExpiresAt:    expiresAt,
	}
}

// TestPendingActionRepository_CreateAndFind 测试创建与查找
func TestPendingActionRepository_CreateAndFind(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	action := newPendingAction("act-001", time.Now().Add(72*time.Hour))
	require.NoError(t, repo.Create(action))

	found, err := repo.FindByID("act-001")
	require.NoError(t, err)
	assert.Equal(t, "client_create", found.ActionType)
	assert.Equal(t, model.StatusPending, found.Status)
	assert.False(t, found.IsExecuted)
}

// TestPendingActionRepository_CreateInvalid 测试非法记录被拒绝
func TestPendingActionRepository_CreateInvalid(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	action := newPendingAction("act-bad", time.Now().Add(time.Hour))
	action.RequestedBy = ""
	assert.Error(t, repo.Create(action))

	// previous_data 与 target_id 必须成对出现
	action = newPendingAction("act-bad-2", time.Now().Add(time.Hour))
	target := "client-1"
	action.TargetID = &target
	assert.Error(t, repo.Create(action))
}

// TestPendingActionRepository_MarkReviewed 测试审核条件更新
func TestPendingActionRepository_MarkReviewed(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	require.NoError(t, repo.Create(newPendingAction("act-001", time.Now().Add(time.Hour))))

	now := time.Now()
	won, err := repo.MarkReviewed("act-001", &repository.ReviewUpdate{
		Status:     model.StatusApproved,
		ReviewedBy: "admin-001",
		ReviewedAt: now,
	}, now)
	require.NoError(t, err)
	assert.True(t, won)

	// 第二次审核同一条记录必然失败
	won, err = repo.MarkReviewed("act-001", &repository.ReviewUpdate{
		Status:          model.StatusRejected,
		ReviewedBy:      "admin-002",
		ReviewedAt:      now,
		RejectionReason: "duplicate",
	}, now)
	require.NoError(t, err)
	assert.False(t, won)

	found, err := repo.FindByID("act-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, found.Status)
	assert.Equal(t, "admin-001", found.ReviewedBy)
}

// TestPendingActionRepository_MarkReviewedExpired 测试过期记录不可审核
func TestPendingActionRepository_MarkReviewedExpired(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	require.NoError(t, repo.Create(newPendingAction("act-001", time.Now().Add(-time.Minute))))

	now := time.Now()
	won, err := repo.MarkReviewed("act-001", &repository.ReviewUpdate{
		Status:     model.StatusApproved,
		ReviewedBy: "admin-001",
		ReviewedAt: now,
	}, now)
	require.NoError(t, err)
	assert.False(t, won)
}

// TestPendingActionRepository_ConcurrentReview 测试并发审核恰好一方成功
func TestPendingActionRepository_ConcurrentReview(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	require.NoError(t, repo.Create(newPendingAction("act-001", time.Now().Add(time.Hour))))

	var wg sync.WaitGroup
	results := make([]bool, 2)
	now := time.Now()
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			won, err := repo.MarkReviewed("act-001", &repository.ReviewUpdate{
				Status:     model.StatusApproved,
				ReviewedBy: "admin",
				ReviewedAt: now,
			}, now)
			assert.NoError(t, err)
			results[i] = won
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, won := range results {
		if won {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

// TestPendingActionRepository_MarkExecuted 测试执行标记幂等
func TestPendingActionRepository_MarkExecuted(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	action := newPendingAction("act-001", time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(action))

	// pending 状态不可执行
	won, err := repo.MarkExecuted("act-001", time.Now())
	require.NoError(t, err)
	assert.False(t, won)

	now := time.Now()
	_, err = repo.MarkReviewed("act-001", &repository.ReviewUpdate{
		Status:     model.StatusApproved,
		ReviewedBy: "admin-001",
		ReviewedAt: now,
	}, now)
	require.NoError(t, err)

	won, err = repo.MarkExecuted("act-001", time.Now())
	require.NoError(t, err)
	assert.True(t, won)

	// 重复执行标记失败
	won, err = repo.MarkExecuted("act-001", time.Now())
	require.NoError(t, err)
	assert.False(t, won)

	found, err := repo.FindByID("act-001")
	require.NoError(t, err)
	assert.True(t, found.IsExecuted)
	assert.NotNil(t, found.ExecutedAt)
}

// TestPendingActionRepository_SweepExpired 测试过期清扫
func TestPendingActionRepository_SweepExpired(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	require.NoError(t, repo.Create(newPendingAction("act-expired", time.Now().Add(-time.Hour))))
	require.NoError(t, repo.Create(newPendingAction("act-live", time.Now().Add(time.Hour))))

	swept, err := repo.SweepExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	expired, err := repo.FindByID("act-expired")
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, expired.Status)

	live, err := repo.FindByID("act-live")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, live.Status)

	// 再次清扫无事发生
	swept, err = repo.SweepExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), swept)
}

// TestPendingActionRepository_FindRetryable 测试补偿扫描
func TestPendingActionRepository_FindRetryable(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	now := time.Now()
	for _, id := range []string{"act-1", "act-2"} {
		require.NoError(t, repo.Create(newPendingAction(id, now.Add(time.Hour))))
		_, err := repo.MarkReviewed(id, &repository.ReviewUpdate{
			Status:     model.StatusApproved,
			ReviewedBy: "admin",
			ReviewedAt: now,
		}, now)
		require.NoError(t, err)
	}
	// act-2 已执行,不应出现在补偿列表
	_, err := repo.MarkExecuted("act-2", now)
	require.NoError(t, err)

	retryable, err := repo.FindRetryable(10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, "act-1", retryable[0].ID)
}

// TestPendingActionRepository_FindByFilter 测试过滤与排序
func TestPendingActionRepository_FindByFilter(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	base := time.Now()
	priorities := map[string]string{
		"act-low":    model.PriorityLow,
		"act-urgent": model.PriorityUrgent,
		"act-normal": model.PriorityNormal,
	}
	for id, p := range priorities {
		action := newPendingAction(id, base.Add(time.Hour))
		action.Priority = p
		require.NoError(t, repo.Create(action))
	}

	// 优先级按业务顺序排序,urgent 最前
	actions, err := repo.FindByFilter(&repository.PendingActionFilter{
		SortBy:    "priority",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "act-urgent", actions[0].ID)
	assert.Equal(t, "act-low", actions[2].ID)

	// 非法排序字段被拒绝
	_, err = repo.FindByFilter(&repository.PendingActionFilter{SortBy: "id; DROP TABLE"})
	assert.Error(t, err)

	// limit 生效
	actions, err = repo.FindByFilter(&repository.PendingActionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}

// TestPendingActionRepository_Counts 测试统计计数
func TestPendingActionRepository_Counts(t *testing.T) {
	db := setupActionDB(t)
	repo := repository.NewPendingActionRepository(db)

	now := time.Now()
	require.NoError(t, repo.Create(newPendingAction("act-pending", now.Add(time.Hour))))
	require.NoError(t, repo.Create(newPendingAction("act-stale", now.Add(-time.Hour))))

	approved := newPendingAction("act-approved", now.Add(time.Hour))
	require.NoError(t, repo.Create(approved))
	_, err := repo.MarkReviewed("act-approved", &repository.ReviewUpdate{
		Status:     model.StatusApproved,
		ReviewedBy: "admin",
		ReviewedAt: now,
	}, now)
	require.NoError(t, err)

	// pending 计数排除已过期记录
	count, err := repo.CountByStatus(model.StatusPending, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err = repo.CountReviewedInWindow(model.StatusApproved, dayStart, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	durations, err := repo.ReviewDurationsInWindow(dayStart, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, durations, 1)

	soon, err := repo.CountExpiringSoon(now, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), soon)
}
