package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/graphql-crud/config"
	"github.com/d60-Lab/graphql-crud/internal/api"
	"github.com/d60-Lab/graphql-crud/internal/api/handler"
	"github.com/d60-Lab/graphql-crud/internal/client"
	"github.com/d60-Lab/graphql-crud/internal/graph"
	"github.com/d60-Lab/graphql-crud/internal/repository"
	"github.com/d60-Lab/graphql-crud/internal/service"
	"github.com/d60-Lab/graphql-crud/internal/web"
	"github.com/d60-Lab/graphql-crud/pkg/database"
	"github.com/d60-Lab/graphql-crud/pkg/logger"
	"github.com/d60-Lab/graphql-crud/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	sentryOn, err := telemetry.InitSentry(cfg)
	if err != nil {
		return err
	}
	if sentryOn {
		defer telemetry.FlushSentry()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	repo := repository.NewPostRepository(db)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, reads fall back to database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		repo = repository.NewCachedPostRepository(repo, rdb, cfg.Redis.TTL)
	}

	posts := service.NewPostService(repo)
	h := handler.NewHandler(graph.NewExecutor(graph.NewResolver(posts)), posts)
	apiClient := client.New(cfg.Web.APIURL, client.WithTimeout(cfg.Web.RequestTimeout))
	page := web.NewHandler(apiClient, cfg.Web.LoadingWait, []byte(cfg.Web.SessionSecret))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewHTTPHandler(cfg, api.NewRouter(cfg, h, page)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
