package service_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"github.com/memorialops/cemetery-gin/internal/policy"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/memorialops/cemetery-gin/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// failingSource 总是失败的策略来源
type failingSource struct{}

func (failingSource) Rules() (map[string]bool, error) {
	return nil, errFailingSource
}

var errFailingSource = errors.New("policy store unreachable")

// testEnv 服务层测试环境
type testEnv struct {
	db         *gorm.DB
	actionRepo repository.PendingActionRepository
	executor   service.ActionExecutor
	submission service.SubmissionService
	review     service.ReviewService
	query      service.QueryService
	stats      service.StatsService
	policy     *policy.Engine
}

// newTestEnv 搭建 sqlite 内存库与完整服务栈
func newTestEnv(t *testing.T, source policy.Source) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.PendingActionModel{},
		&model.ClientModel{},
		&model.PaymentModel{},
		&model.LotModel{},
		&model.BurialModel{},
		&model.WebsiteContentModel{},
		&model.AuditLogModel{},
	)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if source == nil {
		source = policy.StaticSource{}
	}
	engine := policy.NewEngine(source, 72*time.Hour)

	actionRepo := repository.NewPendingActionRepository(db)
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	executor := service.NewActionExecutor(db, actionRepo, logger)

	return &testEnv{
		db:         db,
		actionRepo: actionRepo,
		executor:   executor,
		submission: service.NewSubmissionService(db, actionRepo, engine, executor, auditSvc, logger),
		review:     service.NewReviewService(actionRepo, executor, auditSvc, logger),
		query:      service.NewQueryService(actionRepo),
		stats:      service.NewStatsService(actionRepo),
		policy:     engine,
	}
}

// seedClient 预置一个客户
func (e *testEnv) seedClient(t *testing.T, id, name, email string) {
	now := time.Now()
	require.NoError(t, e.db.Create(&model.ClientModel{
		ID:        id,
		Name:      name,
		Email:     email,
		Status:    model.ClientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

// seedPayment 预置一条缴费记录
func (e *testEnv) seedPayment(t *testing.T, id string, amount float64) {
	now := time.Now()
	require.NoError(t, e.db.Create(&model.PaymentModel{
		ID:        id,
		ClientID:  "client-1",
		Amount:    amount,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

// seedLot 预置一个墓位
func (e *testEnv) seedLot(t *testing.T, id, status string) {
	now := time.Now()
	require.NoError(t, e.db.Create(&model.LotModel{
		ID:        id,
		Section:   "A",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}
