package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorialops/cemetery-gin/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenRoundTrip 测试签发与验证
func TestTokenRoundTrip(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret", "cemetery-gin")

	token, err := validator.IssueToken("emp-001", "areyes", "Ana Reyes", auth.RoleEmployee, time.Hour)
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-001", claims.UserID)
	assert.Equal(t, "areyes", claims.Username)
	assert.Equal(t, auth.RoleEmployee, claims.Role)
}

// TestValidateToken_WrongSecret 测试密钥不符
func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenValidator("secret-a", "cemetery-gin")
	validator := auth.NewTokenValidator("secret-b", "cemetery-gin")

	token, err := issuer.IssueToken("emp-001", "areyes", "", auth.RoleEmployee, time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

// TestValidateToken_Expired 测试过期 token
func TestValidateToken_Expired(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret", "cemetery-gin")

	token, err := validator.IssueToken("emp-001", "areyes", "", auth.RoleEmployee, -time.Minute)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

// TestValidateToken_WrongIssuer 测试 issuer 校验
func TestValidateToken_WrongIssuer(t *testing.T) {
	issuer := auth.NewTokenValidator("test-secret", "someone-else")
	validator := auth.NewTokenValidator("test-secret", "cemetery-gin")

	token, err := issuer.IssueToken("emp-001", "areyes", "", auth.RoleEmployee, time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

// TestExtractBearerToken 测试 Authorization 头解析
func TestExtractBearerToken(t *testing.T) {
	token, err := auth.ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = auth.ExtractBearerToken("")
	assert.Error(t, err)
	_, err = auth.ExtractBearerToken("Basic dXNlcg==")
	assert.Error(t, err)
	_, err = auth.ExtractBearerToken("Bearer")
	assert.Error(t, err)
}

// TestMiddleware 测试认证中间件写入身份信息
func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := auth.NewTokenValidator("test-secret", "cemetery-gin")

	router := gin.New()
	router.Use(auth.Middleware(validator))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(auth.ContextUserID),
			"role":    c.GetString(auth.ContextRole),
		})
	})

	// 无 token 拒绝
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 有效 token 放行
	token, err := validator.IssueToken("emp-001", "areyes", "", auth.RoleEmployee, time.Hour)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "emp-001")
}

// TestRequireAdmin 测试管理员守卫
func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := auth.NewTokenValidator("test-secret", "cemetery-gin")

	router := gin.New()
	router.Use(auth.Middleware(validator), auth.RequireAdmin())
	router.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	employeeToken, err := validator.IssueToken("emp-001", "areyes", "", auth.RoleEmployee, time.Hour)
	require.NoError(t, err)
	adminToken, err := validator.IssueToken("adm-001", "boss", "", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+employeeToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
