package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/graphql-crud/pkg/logger"
)

// Response 统一响应结构（GraphQL 端点除外）
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: msg})
}

// ServiceUnavailable 依赖不可用（健康检查失败）
func ServiceUnavailable(c *gin.Context, err error) {
	logger.Warn("dependency unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, Response{Code: http.StatusServiceUnavailable, Message: err.Error()})
}
