package utils

import (
	"errors"
	"strings"
)

// sortableFields 允许参与排序的字段白名单
var sortableFields = map[string]bool{
	"created_at":  true,
	"expires_at":  true,
	"reviewed_at": true,
	"executed_at": true,
	"priority":    true,
	"status":      true,
	"action_type": true,
}

// ValidateSortField 验证排序字段，防止 SQL 注入
// 只接受白名单内的字段名
func ValidateSortField(field string) error {
	if field == "" {
		return errors.New("sort field cannot be empty")
	}
	if !sortableFields[field] {
		return errors.New("sort field is not allowed")
	}
	return nil
}

// ValidateSortOrder 验证排序方向
func ValidateSortOrder(order string) error {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder != "ASC" && upperOrder != "DESC" {
		return errors.New("sort order must be ASC or DESC")
	}
	return nil
}
