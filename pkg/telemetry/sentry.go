package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/graphql-crud/config"
)

// InitSentry 初始化 Sentry 客户端；DSN 为空时不启用，返回 false
func InitSentry(cfg *config.Config) (bool, error) {
	if cfg.Sentry.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.App.Env,
		ServerName:       cfg.App.Name,
		EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	})
	if err != nil {
		return false, fmt.Errorf("init sentry: %w", err)
	}
	return true, nil
}

// FlushSentry 退出前等待事件发送
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
