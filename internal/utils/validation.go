package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// SanitizeString 清理字符串，移除控制字符
// 文本按原样落库,HTML 转义由展示层负责
func SanitizeString(input string) string {
	// 移除控制字符（除了换行符和制表符）
	var result strings.Builder
	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

var idRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateActionID 验证待审批操作 ID 格式
func ValidateActionID(id string) error {
	// 1. 检查是否为空
	if id == "" {
		return ErrEmptyID
	}

	// 2. 检查格式（只允许字母、数字、连字符、下划线）
	if !idRe.MatchString(id) {
		return ErrInvalidIDFormat
	}

	// 3. 检查长度（最大 64 字符）
	if len(id) > 64 {
		return ErrIDTooLong
	}

	return nil
}

// ValidateEntityID 验证目标实体 ID 格式
func ValidateEntityID(id string) error {
	return ValidateActionID(id) // 使用相同的验证规则
}

// 错误定义
var (
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id contains invalid characters"}
	ErrIDTooLong       = &ValidationError{Code: "ID_TOO_LONG", Message: "id exceeds maximum length"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
