package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grc-backend/internal/imports"
	"grc-backend/internal/rbac"
	"grc-backend/internal/services/health"
	"grc-backend/internal/shared/config"
	"grc-backend/internal/shared/metrics"
	"grc-backend/internal/shared/server/middleware"
	"grc-backend/internal/shared/server/respond"
)

const importsResource = "import"

// RouterDeps carries the handlers and collaborators the router mounts.
type RouterDeps struct {
	Config        config.Config
	Health        *health.Service
	ImportHandler *imports.Handler
	Permissions   rbac.Checker
	RateLimiter   *middleware.RateLimiter
}

// importRateLimits throttles model-backed uploads harder than reads.
var importRateLimits = map[string]middleware.RateLimitRule{
	"IMPORT":  {Rate: 0.2, Burst: 5},
	"DEFAULT": {Rate: 5, Burst: 30},
}

var importRouteGroups = map[string]string{
	"POST /api/v1/imports/:schema":   "IMPORT",
	"GET /api/v1/imports/llm/health": "IMPORT",
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if ok, _ := status["ok"].(bool); !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	registerMeRoutes(api)

	if deps.ImportHandler != nil && deps.Permissions != nil {
		group := api.Group("/imports",
			middleware.RateLimit(middleware.RateLimitConfig{
				Rules:    importRateLimits,
				GroupFor: middleware.RouteGroups(importRouteGroups),
				Limiter:  deps.RateLimiter,
			}),
			rbac.Require(importsResource, deps.Permissions),
		)
		deps.ImportHandler.RegisterRoutes(group)
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
