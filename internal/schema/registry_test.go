package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/memorialops/cemetery-gin/internal/apperr"
	"github.com/memorialops/cemetery-gin/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLookup 测试注册表查找
func TestLookup(t *testing.T) {
	entry, ok := schema.Lookup(schema.ActionClientCreate)
	require.True(t, ok)
	assert.Equal(t, schema.EntityClient, entry.TargetEntity)
	assert.True(t, entry.IsCreate)
	assert.True(t, entry.DefaultApproval)

	entry, ok = schema.Lookup(schema.ActionPaymentUpdate)
	require.True(t, ok)
	assert.False(t, entry.IsCreate)

	_, ok = schema.Lookup("drop_table")
	assert.False(t, ok)
}

// TestTypes 测试类型枚举封闭
func TestTypes(t *testing.T) {
	types := schema.Types()
	assert.ElementsMatch(t, []string{
		schema.ActionClientCreate,
		schema.ActionClientUpdate,
		schema.ActionPaymentUpdate,
		schema.ActionBurialCreate,
		schema.ActionContentUpdate,
	}, types)
}

// TestDecode_ClientCreate 测试 client_create 负载解码
func TestDecode_ClientCreate(t *testing.T) {
	payload, err := schema.Decode(schema.ActionClientCreate,
		json.RawMessage(`{"name":"Maria Santos","email":"maria@example.com"}`))
	require.NoError(t, err)

	data, ok := payload.(*schema.ClientCreateData)
	require.True(t, ok)
	assert.Equal(t, "Maria Santos", data.Name)
}

// TestDecode_MissingFields 测试缺失字段报 ValidationError
func TestDecode_MissingFields(t *testing.T) {
	_, err := schema.Decode(schema.ActionClientCreate, json.RawMessage(`{"email":"x@example.com"}`))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "name")
}

// TestDecode_UnknownType 测试未注册类型
func TestDecode_UnknownType(t *testing.T) {
	_, err := schema.Decode("lot_teleport", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

// TestDecode_UnknownField 测试多余字段被拒绝
func TestDecode_UnknownField(t *testing.T) {
	_, err := schema.Decode(schema.ActionClientUpdate,
		json.RawMessage(`{"name":"x","超能力":"飞行"}`))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

// TestDecode_EmptyUpdate 测试空更新负载被拒绝
func TestDecode_EmptyUpdate(t *testing.T) {
	_, err := schema.Decode(schema.ActionClientUpdate, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

// TestDecode_PaymentStatus 测试缴费状态枚举
func TestDecode_PaymentStatus(t *testing.T) {
	_, err := schema.Decode(schema.ActionPaymentUpdate, json.RawMessage(`{"status":"Vanished"}`))
	require.Error(t, err)

	payload, err := schema.Decode(schema.ActionPaymentUpdate, json.RawMessage(`{"status":"Completed","amount":1500.50}`))
	require.NoError(t, err)
	data := payload.(*schema.PaymentUpdateData)
	assert.ElementsMatch(t, []string{"status", "amount"}, data.Keys())
}

// TestDecode_BurialDates 测试安葬日期格式
func TestDecode_BurialDates(t *testing.T) {
	_, err := schema.Decode(schema.ActionBurialCreate,
		json.RawMessage(`{"deceased_name":"Jose Rizal","lot_id":"lot-1","date_of_death":"30/12/1896"}`))
	require.Error(t, err)

	_, err = schema.Decode(schema.ActionBurialCreate,
		json.RawMessage(`{"deceased_name":"Jose Rizal","lot_id":"lot-1","date_of_death":"1896-12-30"}`))
	assert.NoError(t, err)
}

// TestUpdatePayloadKeys 测试变更字段集与负载一致
func TestUpdatePayloadKeys(t *testing.T) {
	payload, err := schema.Decode(schema.ActionClientUpdate,
		json.RawMessage(`{"phone":"0917-555-0101","address":"Quezon City"}`))
	require.NoError(t, err)

	update, ok := payload.(schema.UpdatePayload)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"phone", "address"}, update.Keys())
}
