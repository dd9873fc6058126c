package service

import (
	"context"
	"time"

	"github.com/memorialops/cemetery-gin/internal/metrics"
	"github.com/memorialops/cemetery-gin/internal/repository"
	"github.com/sirupsen/logrus"
)

// MaintenanceWorkerConfig 后台维护任务配置
type MaintenanceWorkerConfig struct {
	// RetryInterval 执行补偿扫描间隔,<=0 关闭
	RetryInterval time.Duration
	// SweepInterval 过期清扫间隔,<=0 关闭(仅保留惰性过期)
	SweepInterval time.Duration
	// RetryBatch 单轮补偿扫描的最大执行条数
	RetryBatch int
}

// MaintenanceWorker 后台维护任务
// 周期性重试 approved 未执行的记录,并清扫已过期的 pending 记录
type MaintenanceWorker struct {
	actionRepo repository.PendingActionRepository
	executor   ActionExecutor
	config     *MaintenanceWorkerConfig
	logger     *logrus.Logger
	stopChan   chan struct{}
}

// NewMaintenanceWorker 创建后台维护任务
func NewMaintenanceWorker(
	actionRepo repository.PendingActionRepository,
	executor ActionExecutor,
	config *MaintenanceWorkerConfig,
	logger *logrus.Logger,
) *MaintenanceWorker {
	if config.RetryBatch <= 0 {
		config.RetryBatch = 100
	}
	return &MaintenanceWorker{
		actionRepo: actionRepo,
		executor:   executor,
		config:     config,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start 启动维护任务
func (w *MaintenanceWorker) Start(ctx context.Context) {
	if w.config.RetryInterval > 0 {
		go w.scheduleRetry(ctx)
	}
	if w.config.SweepInterval > 0 {
		go w.scheduleSweep(ctx)
	}
}

// Stop 停止维护任务
func (w *MaintenanceWorker) Stop() {
	close(w.stopChan)
}

// scheduleRetry 周期性补偿执行
func (w *MaintenanceWorker) scheduleRetry(ctx context.Context) {
	ticker := time.NewTicker(w.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.retryExecutions()
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// scheduleSweep 周期性过期清扫
func (w *MaintenanceWorker) scheduleSweep(ctx context.Context) {
	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweepExpired()
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// retryExecutions 扫描并重试未执行的已批准记录
func (w *MaintenanceWorker) retryExecutions() {
	succeeded, err := w.executor.RetryPending(w.config.RetryBatch)
	if err != nil {
		w.logger.WithError(err).Error("Execution retry scan failed")
		return
	}
	if succeeded > 0 {
		w.logger.WithField("count", succeeded).Info("Retried pending executions")
	}
}

// sweepExpired 将已过期的 pending 记录写为 expired
// 条件更新只动过期记录,与审核转换无竞争
func (w *MaintenanceWorker) sweepExpired() {
	swept, err := w.actionRepo.SweepExpired(time.Now())
	if err != nil {
		w.logger.WithError(err).Error("Expired action sweep failed")
		return
	}
	if swept > 0 {
		metrics.RecordExpiredSwept(swept)
		w.logger.WithField("count", swept).Info("Swept expired actions")
	}
}
