package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/insights"
	"documind-backend/internal/services/health"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/metrics"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
	"documind-backend/internal/usage"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	DocumentHandler *documents.Handler
	InsightsHandler *insights.Handler
	UsageHandler    *usage.Handler
}

const insightsRateGroup = "INSIGHTS"

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Session(),
	)

	r.GET("/health", func(c *gin.Context) {
		status := map[string]any{"ok": true}
		if deps.Health != nil {
			status = deps.Health.Status(c.Request.Context())
		}
		respond.JSON(c, http.StatusOK, status)
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.InsightsHandler != nil {
		insightsGroup := api.Group("")
		insightsGroup.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				insightsRateGroup: {Rate: 1, Burst: 5},
			},
			DefaultGroup: insightsRateGroup,
		}))
		deps.InsightsHandler.RegisterRoutes(insightsGroup)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
		if deps.Config.Env == "dev" || deps.Config.Env == "local" {
			dev := api.Group("/dev")
			deps.UsageHandler.RegisterDevRoutes(dev)
		}
	}

	return r
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
