package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/analysis"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/generation"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/progress"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/services/health"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/config"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/metrics"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server/middleware"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server/respond"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/uploads"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

// RouterDeps carries the handlers the router wires up. Nil handlers are
// skipped, which keeps partial wiring usable in tests.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	WorkItemHandler   *workitems.Handler
	AnalysisHandler   *analysis.Handler
	GenerationHandler *generation.Handler
	ProgressHandler   *progress.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(inferenceRateLimit()))
	registerMeRoutes(api)
	api.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.WorkItemHandler != nil {
		deps.WorkItemHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.GenerationHandler != nil {
		deps.GenerationHandler.RegisterRoutes(api)
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.RegisterRoutes(api)
	}
	uploads.RegisterRoutes(api)

	return r
}

// inferenceRateLimit throttles the endpoints that trigger model
// invocations. Everything else passes through unlimited.
func inferenceRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"INFERENCE": {Rate: 0.5, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			switch c.FullPath() {
			case "/api/v1/analysis", "/api/v1/generation", "/api/v1/details":
				return "INFERENCE"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
