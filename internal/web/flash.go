package web

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/graphql-crud/pkg/logger"
)

const sessionName = "flash"

func init() {
	gob.Register(Toast{})
}

// setFlash 重定向前写入一次性提示
func setFlash(c *gin.Context, toast Toast) {
	session := sessions.Default(c)
	session.AddFlash(toast)
	if err := session.Save(); err != nil {
		logger.Warn("save flash failed", zap.Error(err))
	}
}

// popFlash 读取并清除提示
func popFlash(c *gin.Context) *Toast {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		logger.Warn("clear flash failed", zap.Error(err))
	}
	toast, ok := flashes[len(flashes)-1].(Toast)
	if !ok {
		return nil
	}
	return &toast
}
