package metrics

import (
	"context"
	"time"

	"github.com/memorialops/cemetery-gin/internal/model"
	"gorm.io/gorm"
)

// Collector 指标收集器
// 周期性地把数据库连接池与操作状态分布刷进 Prometheus 指标
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.updateStatusDistribution()
		}
	}
}

// updateStatusDistribution 刷新操作状态分布
func (c *Collector) updateStatusDistribution() {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := c.db.Model(&model.PendingActionModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return
	}
	for _, r := range rows {
		UpdateActionsByStatus(r.Status, float64(r.Count))
	}
}
