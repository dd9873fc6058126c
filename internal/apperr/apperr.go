package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 错误类别
// 引擎对外暴露的错误分类,控制器据此映射 HTTP 状态码
type Kind int

const (
	KindValidation Kind = iota // 输入校验失败,调用方修正后重新提交
	KindNotFound               // 目标实体或待审批操作不存在
	KindConflict               // 操作已被审核/已过期,并发竞争失败方收到
	KindExecution              // 审批已通过但执行变更失败,可重试
	KindPolicy                 // 策略查询失败,引擎按"需要审批"处理
)

// Error 带类别的领域错误
type Error struct {
	Kind    Kind
	Message string
	Fields  []string // 校验错误时列出缺失/非法字段
	Err     error    // 底层错误
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 创建校验错误
func Validation(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NotFound 创建未找到错误
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict 创建冲突错误
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Execution 创建执行错误
func Execution(message string, err error) *Error {
	return &Error{Kind: KindExecution, Message: message, Err: err}
}

// Policy 创建策略错误
func Policy(message string, err error) *Error {
	return &Error{Kind: KindPolicy, Message: message, Err: err}
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsNotFound 判断是否为未找到错误
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsConflict 判断是否为冲突错误
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsExecution 判断是否为执行错误
func IsExecution(err error) bool { return IsKind(err, KindExecution) }

// IsPolicy 判断是否为策略错误
func IsPolicy(err error) bool { return IsKind(err, KindPolicy) }
