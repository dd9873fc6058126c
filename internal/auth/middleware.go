package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// context 键
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextUserName = "user_name"
	ContextRole     = "role"
)

// Middleware JWT 认证中间件
// 验证通过后把身份信息写入 gin context 供控制器读取
func Middleware(validator *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "unauthorized",
				"detail":  err.Error(),
			})
			return
		}

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "unauthorized",
				"detail":  err.Error(),
			})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserName, claims.Name)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin 管理员角色守卫,必须在 Middleware 之后挂载
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "forbidden",
				"detail":  "admin role required",
			})
			return
		}
		c.Next()
	}
}
