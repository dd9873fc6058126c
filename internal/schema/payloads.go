package schema

import (
	"regexp"
	"strings"
)

// Payload 操作负载,按 action_type 静态定型的 change_data
type Payload interface {
	Validate() []string // 返回缺失/非法字段列表,空表示通过
}

// UpdatePayload 更新类负载,能报告本次变更涉及的字段集
// previous_data 快照按同一字段集采集
type UpdatePayload interface {
	Payload
	Keys() []string
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ClientCreateData client_create 负载
type ClientCreateData struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Validate 校验字段
func (d *ClientCreateData) Validate() []string {
	var bad []string
	if strings.TrimSpace(d.Name) == "" {
		bad = append(bad, "name")
	}
	if d.Email != "" && !strings.Contains(d.Email, "@") {
		bad = append(bad, "email")
	}
	return bad
}

// ClientUpdateData client_update 负载,指针字段缺省表示该字段不变更
type ClientUpdateData struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// Validate 校验字段
func (d *ClientUpdateData) Validate() []string {
	var bad []string
	if len(d.Keys()) == 0 {
		bad = append(bad, "change_data")
	}
	if d.Name != nil && strings.TrimSpace(*d.Name) == "" {
		bad = append(bad, "name")
	}
	if d.Email != nil && *d.Email != "" && !strings.Contains(*d.Email, "@") {
		bad = append(bad, "email")
	}
	if d.Status != nil && *d.Status != "Active" && *d.Status != "Inactive" {
		bad = append(bad, "status")
	}
	return bad
}

// Keys 返回变更字段集
func (d *ClientUpdateData) Keys() []string {
	var keys []string
	if d.Name != nil {
		keys = append(keys, "name")
	}
	if d.Email != nil {
		keys = append(keys, "email")
	}
	if d.Phone != nil {
		keys = append(keys, "phone")
	}
	if d.Address != nil {
		keys = append(keys, "address")
	}
	if d.Status != nil {
		keys = append(keys, "status")
	}
	return keys
}

// PaymentUpdateData payment_update 负载
type PaymentUpdateData struct {
	Status *string  `json:"status,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Method *string  `json:"method,omitempty"`
}

// Validate 校验字段
func (d *PaymentUpdateData) Validate() []string {
	var bad []string
	if len(d.Keys()) == 0 {
		bad = append(bad, "change_data")
	}
	if d.Status != nil {
		switch *d.Status {
		case "Pending", "Completed", "Refunded", "Cancelled":
		default:
			bad = append(bad, "status")
		}
	}
	if d.Amount != nil && *d.Amount < 0 {
		bad = append(bad, "amount")
	}
	return bad
}

// Keys 返回变更字段集
func (d *PaymentUpdateData) Keys() []string {
	var keys []string
	if d.Status != nil {
		keys = append(keys, "status")
	}
	if d.Amount != nil {
		keys = append(keys, "amount")
	}
	if d.Method != nil {
		keys = append(keys, "method")
	}
	return keys
}

// BurialCreateData burial_create 负载
// 执行时会同时将关联墓位置为 occupied
type BurialCreateData struct {
	DeceasedName  string `json:"deceased_name"`
	DateOfDeath   string `json:"date_of_death"`
	IntermentDate string `json:"interment_date"`
	LotID         string `json:"lot_id"`
	ClientID      string `json:"client_id"`
}

// Validate 校验字段
func (d *BurialCreateData) Validate() []string {
	var bad []string
	if strings.TrimSpace(d.DeceasedName) == "" {
		bad = append(bad, "deceased_name")
	}
	if d.LotID == "" {
		bad = append(bad, "lot_id")
	}
	if d.DateOfDeath != "" && !dateRe.MatchString(d.DateOfDeath) {
		bad = append(bad, "date_of_death")
	}
	if d.IntermentDate != "" && !dateRe.MatchString(d.IntermentDate) {
		bad = append(bad, "interment_date")
	}
	return bad
}

// ContentUpdateData content_update 负载
type ContentUpdateData struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// Validate 校验字段
func (d *ContentUpdateData) Validate() []string {
	var bad []string
	if len(d.Keys()) == 0 {
		bad = append(bad, "change_data")
	}
	return bad
}

// Keys 返回变更字段集
func (d *ContentUpdateData) Keys() []string {
	var keys []string
	if d.Title != nil {
		keys = append(keys, "title")
	}
	if d.Body != nil {
		keys = append(keys, "body")
	}
	return keys
}
