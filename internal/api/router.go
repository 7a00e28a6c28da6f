package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/graphql-crud/config"
	"github.com/d60-Lab/graphql-crud/internal/api/handler"
	"github.com/d60-Lab/graphql-crud/internal/api/middleware"
	"github.com/d60-Lab/graphql-crud/pkg/response"
)

// Page 服务端渲染页面的路由注册
type Page interface {
	Register(r gin.IRoutes)
}

// NewRouter 组装中间件与路由；page 为 nil 时只提供 API
func NewRouter(cfg *config.Config, h *handler.Handler, page Page) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.App.Name))
	}
	r.Use(middleware.RequestID(), middleware.Logger())

	r.GET("/healthz", h.Health)
	r.POST("/graphql", h.GraphQL)
	r.GET("/graphql", h.GraphQLGet)

	if page != nil {
		page.Register(r.Group("/", gzip.Gzip(gzip.DefaultCompression)))
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
	return r
}

// NewHTTPHandler 在路由外包一层 CORS，供浏览器端直接调用 /graphql
func NewHTTPHandler(cfg *config.Config, engine *gin.Engine) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         600,
	}).Handler(engine)
}
