package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/memorialops/cemetery-gin/internal/apperr"
)

// 操作类型(封闭枚举)
const (
	ActionClientCreate  = "client_create"
	ActionClientUpdate  = "client_update"
	ActionPaymentUpdate = "payment_update"
	ActionBurialCreate  = "burial_create"
	ActionContentUpdate = "content_update"
)

// 目标实体类别
const (
	EntityClient  = "client"
	EntityPayment = "payment"
	EntityBurial  = "burial"
	EntityWebsite = "website"
)

// Entry 操作类型注册表条目
type Entry struct {
	Type            string
	TargetEntity    string
	IsCreate        bool // 创建类操作不允许 target_id
	DefaultApproval bool // 策略未配置该类型时的审批要求
	newPayload      func() Payload
}

// registry 封闭注册表,按 action_type 索引
var registry = map[string]*Entry{
	ActionClientCreate: {
		Type:            ActionClientCreate,
		TargetEntity:    EntityClient,
		IsCreate:        true,
		DefaultApproval: true,
		newPayload:      func() Payload { return &ClientCreateData{} },
	},
	ActionClientUpdate: {
		Type:            ActionClientUpdate,
		TargetEntity:    EntityClient,
		DefaultApproval: true,
		newPayload:      func() Payload { return &ClientUpdateData{} },
	},
	ActionPaymentUpdate: {
		Type:            ActionPaymentUpdate,
		TargetEntity:    EntityPayment,
		DefaultApproval: true,
		newPayload:      func() Payload { return &PaymentUpdateData{} },
	},
	ActionBurialCreate: {
		Type:            ActionBurialCreate,
		TargetEntity:    EntityBurial,
		IsCreate:        true,
		DefaultApproval: true,
		newPayload:      func() Payload { return &BurialCreateData{} },
	},
	ActionContentUpdate: {
		Type:            ActionContentUpdate,
		TargetEntity:    EntityWebsite,
		DefaultApproval: true,
		newPayload:      func() Payload { return &ContentUpdateData{} },
	},
}

// Lookup 查找操作类型条目
func Lookup(actionType string) (*Entry, bool) {
	e, ok := registry[actionType]
	return e, ok
}

// Types 返回全部注册的操作类型
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// Decode 将 change_data 按操作类型解码为静态定型负载并校验
// 未注册类型或字段缺失/非法返回校验错误
func Decode(actionType string, raw json.RawMessage) (Payload, error) {
	entry, ok := Lookup(actionType)
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("unknown action type %q", actionType), "action_type")
	}
	if len(raw) == 0 {
		return nil, apperr.Validation("change data is required", "change_data")
	}

	payload := entry.newPayload()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return nil, apperr.Validation("malformed change data: "+err.Error(), "change_data")
	}

	if bad := payload.Validate(); len(bad) > 0 {
		return nil, apperr.Validation("invalid change data", bad...)
	}
	return payload, nil
}
