package container

import (
	"context"
	"fmt"
	"time"

	"github.com/memorialops/cemetery-gin/internal/auth"
	"github.com/memorialops/cemetery-gin/internal/config"
	"github.com/memorialops/cemetery-gin/internal/database"
	"github.com/memorialops/cemetery-gin/internal/policy"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/memorialops/cemetery-gin/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理数据库、策略引擎、服务与后台任务的装配和生命周期
type Container struct {
	db                *gorm.DB
	policyEngine      *policy.Engine
	actionRepo        repository.PendingActionRepository
	executor          service.ActionExecutor
	submissionService service.SubmissionService
	reviewService     service.ReviewService
	queryService      service.QueryService
	statsService      service.StatsService
	tokenValidator    *auth.TokenValidator
	worker            *service.MaintenanceWorker
	logger            *logrus.Logger
}

// NewContainer 创建依赖注入容器
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	// 初始化数据库（带重试机制）
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewContainerWithDB(cfg, db, logger), nil
}

// NewContainerWithDB 基于已有数据库连接装配容器(迁移已完成的场景与测试使用)
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) *Container {
	expiry := time.Duration(cfg.Approval.ExpiryHours) * time.Hour
	policyEngine := policy.NewEngine(policy.StaticSource(cfg.Approval.RequireByType), expiry)

	actionRepo := repository.NewPendingActionRepository(db)
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	executor := service.NewActionExecutor(db, actionRepo, logger)

	worker := service.NewMaintenanceWorker(actionRepo, executor, &service.MaintenanceWorkerConfig{
		RetryInterval: time.Duration(cfg.Approval.RetryIntervalMinutes) * time.Minute,
		SweepInterval: time.Duration(cfg.Approval.SweepIntervalMinutes) * time.Minute,
	}, logger)

	return &Container{
		db:                db,
		policyEngine:      policyEngine,
		actionRepo:        actionRepo,
		executor:          executor,
		submissionService: service.NewSubmissionService(db, actionRepo, policyEngine, executor, auditSvc, logger),
		reviewService:     service.NewReviewService(actionRepo, executor, auditSvc, logger),
		queryService:      service.NewQueryService(actionRepo),
		statsService:      service.NewStatsService(actionRepo),
		tokenValidator:    auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		worker:            worker,
		logger:            logger,
	}
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// PolicyEngine 获取策略引擎
func (c *Container) PolicyEngine() *policy.Engine {
	return c.policyEngine
}

// ActionRepository 获取待审批操作仓储
func (c *Container) ActionRepository() repository.PendingActionRepository {
	return c.actionRepo
}

// Executor 获取操作执行器
func (c *Container) Executor() service.ActionExecutor {
	return c.executor
}

// SubmissionService 获取提交服务
func (c *Container) SubmissionService() service.SubmissionService {
	return c.submissionService
}

// ReviewService 获取审核服务
func (c *Container) ReviewService() service.ReviewService {
	return c.reviewService
}

// QueryService 获取查询服务
func (c *Container) QueryService() service.QueryService {
	return c.queryService
}

// StatsService 获取审批统计服务
func (c *Container) StatsService() service.StatsService {
	return c.statsService
}

// TokenValidator 获取 Token 验证器
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.tokenValidator
}

// StartWorkers 启动后台维护任务
func (c *Container) StartWorkers(ctx context.Context) {
	c.worker.Start(ctx)
}

// ReloadPolicy 用新配置热更新策略引擎
func (c *Container) ReloadPolicy(cfg *config.Config) {
	expiry := time.Duration(cfg.Approval.ExpiryHours) * time.Hour
	c.policyEngine.Reload(policy.StaticSource(cfg.Approval.RequireByType), expiry)
	c.logger.Info("Approval policy reloaded")
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	c.worker.Stop()

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
