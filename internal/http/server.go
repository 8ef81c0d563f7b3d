// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wayfinder/internal/ai"
	"wayfinder/internal/http/handlers"
	"wayfinder/internal/http/middleware"
	"wayfinder/internal/modules/plan"
)

type ServerDeps struct {
	Plan       *plan.Service
	Summarizer ai.Summarizer
	// Store is optional; nil disables the diagnostics endpoint.
	Store *plan.Store
	// Redis is optional; nil disables rate limiting.
	Redis              *redis.Client
	RateLimitPerMinute int
	Log                *zap.Logger
}

type Server struct {
	engine *gin.Engine
}

func NewServer(deps ServerDeps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Log),
		middleware.Recovery(deps.Log),
	)
	if deps.Redis != nil && deps.RateLimitPerMinute > 0 {
		engine.Use(middleware.RateLimit(deps.Redis, deps.RateLimitPerMinute, deps.Log))
	}

	planHandler := handlers.NewPlanHandler(deps.Plan)
	engine.POST("/api/plan", planHandler.Create)
	engine.POST("/api/routes", planHandler.Routes)

	aiHandler := handlers.NewAIHandler(deps.Plan, deps.Summarizer)
	engine.POST("/api/plan/summary", aiHandler.Summary)

	diagHandler := handlers.NewDiagnosticsHandler(deps.Store)
	engine.GET("/api/diagnostics/failures", diagHandler.RecentFailures)

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return &Server{engine: engine}
}

func (s *Server) Routes() http.Handler {
	return s.engine
}
