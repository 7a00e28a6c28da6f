package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/graphql-crud/pkg/response"
)

// Health 健康检查，同时探测数据库（启用缓存时也探测 Redis）
func (h *Handler) Health(c *gin.Context) {
	if err := h.posts.Health(c.Request.Context()); err != nil {
		response.ServiceUnavailable(c, err)
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}
