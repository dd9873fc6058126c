package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 提交的待审批操作数
	actionsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pending_actions_submitted_total",
			Help: "Total number of pending actions submitted",
		},
		[]string{"action_type", "path"}, // path: review / fast
	)

	// 审核操作数
	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_reviews_total",
			Help: "Total number of review decisions",
		},
		[]string{"decision"}, // approve / reject
	)

	// 执行结果数
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_executions_total",
			Help: "Total number of action execution attempts",
		},
		[]string{"outcome"}, // success / failure / noop
	)

	// 过期清扫数
	expiredSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "actions_expired_swept_total",
			Help: "Total number of pending actions marked expired by the sweeper",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 操作状态分布
	actionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pending_actions_by_status",
			Help: "Number of pending actions by status",
		},
		[]string{"status"},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(actionsSubmittedTotal)
	prometheus.MustRegister(reviewsTotal)
	prometheus.MustRegister(executionsTotal)
	prometheus.MustRegister(expiredSweptTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(actionsByStatus)

	// 注册 Go 运行时指标（只注册一次,已注册则忽略错误）
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordSubmission 记录操作提交
func RecordSubmission(actionType string, fastPath bool) {
	path := "review"
	if fastPath {
		path = "fast"
	}
	actionsSubmittedTotal.WithLabelValues(actionType, path).Inc()
}

// RecordReview 记录审核决定
func RecordReview(decision string) {
	reviewsTotal.WithLabelValues(decision).Inc()
}

// RecordExecution 记录执行结果
func RecordExecution(outcome string) {
	executionsTotal.WithLabelValues(outcome).Inc()
}

// RecordExpiredSwept 记录过期清扫数量
func RecordExpiredSwept(count int64) {
	if count > 0 {
		expiredSweptTotal.Add(float64(count))
	}
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateActionsByStatus 更新操作状态分布指标
func UpdateActionsByStatus(status string, count float64) {
	actionsByStatus.WithLabelValues(status).Set(count)
}
