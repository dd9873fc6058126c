package policy

import (
	"sync"
	"time"

	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/schema"
)

// Source 策略规则来源
// 返回 action_type → 是否需要审批 的映射;查询失败时引擎按"需要审批"兜底
type Source interface {
	Rules() (map[string]bool, error)
}

// StaticSource 静态规则表(测试与默认场景)
type StaticSource map[string]bool

// Rules 返回规则表
func (s StaticSource) Rules() (map[string]bool, error) {
	return s, nil
}

// Engine 策略引擎
// 回答"该操作类型当前是否需要审批",无副作用,可被高频调用
type Engine struct {
	mu     sync.RWMutex
	source Source
	expiry time.Duration
}

// DefaultExpiry 待审批操作的默认有效期
const DefaultExpiry = 72 * time.Hour

// NewEngine 创建策略引擎
func NewEngine(source Source, expiry time.Duration) *Engine {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Engine{source: source, expiry: expiry}
}

// IsApprovalRequired 判断操作类型是否需要审批
// 策略查询失败时返回 true 及 PolicyError,绝不静默绕过审核
func (e *Engine) IsApprovalRequired(actionType string) (bool, error) {
	e.mu.RLock()
	source := e.source
	e.mu.RUnlock()

	var rules map[string]bool
	if source != nil {
		var err error
		rules, err = source.Rules()
		if err != nil {
			return true, apperr.Policy("policy lookup failed", err)
		}
	}

	if v, ok := rules[actionType]; ok {
		return v, nil
	}

	// 未显式配置的类型回落到注册表默认值;未注册的类型一律需要审批
	if entry, ok := schema.Lookup(actionType); ok {
		return entry.DefaultApproval, nil
	}
	return true, nil
}

// ExpiryDuration 返回当前配置的操作有效期
func (e *Engine) ExpiryDuration() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.expiry
}

// Reload 热更新策略来源与有效期(配置文件变更时由 watcher 触发)
func (e *Engine) Reload(source Source, expiry time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if source != nil {
		e.source = source
	}
	if expiry > 0 {
		e.expiry = expiry
	}
}
