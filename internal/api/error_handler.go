package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memorialops/cemetery-gin/internal/apperr"
)

// RespondError 将领域错误映射为 HTTP 响应
// 执行错误单独处理(需携带 executed=false),不走这里
func RespondError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		GetLogger().WithError(err).Error("Unhandled error")
		Error(c, http.StatusInternalServerError, "internal server error", "")
		return
	}

	switch ae.Kind {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: ae.Message,
			Fields:  ae.Fields,
		})
	case apperr.KindNotFound:
		Error(c, http.StatusNotFound, ae.Message, "")
	case apperr.KindConflict:
		Error(c, http.StatusConflict, ae.Message, "")
	case apperr.KindExecution:
		Error(c, http.StatusBadGateway, ae.Message, "")
	default:
		Error(c, http.StatusInternalServerError, ae.Message, "")
	}
}

// ErrorHandlerMiddleware 兜底错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			RespondError(c, c.Errors.Last().Err)
		}
	}
}
