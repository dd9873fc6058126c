package database

import (
	"context"
	"fmt"
	"time"

	"github.com/memorialops/cemetery-gin/internal/config"
	"github.com/memorialops/cemetery-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池默认配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数，如果没有配置则使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb，需要手动创建表
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.PendingActionModel{},
			&model.ClientModel{},
			&model.PaymentModel{},
			&model.LotModel{},
			&model.BurialModel{},
			&model.WebsiteContentModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	// 创建 pending_actions 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_actions (
			id VARCHAR(64) PRIMARY KEY,
			action_type VARCHAR(32) NOT NULL,
			target_entity VARCHAR(32) NOT NULL,
			target_id VARCHAR(64),
			change_data TEXT NOT NULL,
			previous_data TEXT,
			requested_by VARCHAR(64) NOT NULL,
			requested_by_name VARCHAR(128),
			status VARCHAR(32) NOT NULL,
			priority VARCHAR(16) NOT NULL DEFAULT 'normal',
			notes TEXT,
			admin_notes TEXT,
			rejection_reason TEXT,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			reviewed_by VARCHAR(64),
			reviewed_at DATETIME,
			is_executed BOOLEAN NOT NULL DEFAULT 0,
			executed_at DATETIME
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create pending_actions table: %w", err)
	}

	// 创建 clients 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			email VARCHAR(128),
			phone VARCHAR(32),
			address TEXT,
			status VARCHAR(32) NOT NULL DEFAULT 'Active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create clients table: %w", err)
	}

	// 创建 payments 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(64) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			amount DECIMAL(12,2) NOT NULL,
			method VARCHAR(32),
			status VARCHAR(32) NOT NULL,
			paid_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	// 创建 lots 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lots (
			id VARCHAR(64) PRIMARY KEY,
			section VARCHAR(32) NOT NULL,
			number INTEGER NOT NULL,
			status VARCHAR(32) NOT NULL,
			price DECIMAL(12,2),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create lots table: %w", err)
	}

	// 创建 burials 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS burials (
			id VARCHAR(64) PRIMARY KEY,
			deceased_name VARCHAR(128) NOT NULL,
			date_of_death VARCHAR(10),
			interment_date VARCHAR(10),
			lot_id VARCHAR(64) NOT NULL,
			client_id VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create burials table: %w", err)
	}

	// 创建 website_contents 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS website_contents (
			id VARCHAR(64) PRIMARY KEY,
			slug VARCHAR(64) NOT NULL UNIQUE,
			title VARCHAR(255),
			body TEXT,
			updated_by VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create website_contents table: %w", err)
	}

	// 创建 audit_logs 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// pending_actions 表索引
	// status+expires_at 组合索引服务过期清扫与待审列表
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_actions_status_expires ON pending_actions(status, expires_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_actions_status_expires: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_actions_requested_by ON pending_actions(requested_by)").Error; err != nil {
		return fmt.Errorf("failed to create idx_actions_requested_by: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_actions_reviewed_at ON pending_actions(reviewed_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_actions_reviewed_at: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_actions_created_at ON pending_actions(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_actions_created_at: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_actions_type ON pending_actions(action_type)").Error; err != nil {
		return fmt.Errorf("failed to create idx_actions_type: %w", err)
	}

	// 目标实体表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_payments_client_id ON payments(client_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_payments_client_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_lots_section_status ON lots(section, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_lots_section_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_burials_lot_id ON burials(lot_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_burials_lot_id: %w", err)
	}

	// audit_logs 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_user_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_created_at: %w", err)
	}

	// PostgreSQL 特定的 GIN 索引
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_actions_change_data_gin ON pending_actions USING GIN (change_data)").Error; err != nil {
			return fmt.Errorf("failed to create idx_actions_change_data_gin: %w", err)
		}
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}
