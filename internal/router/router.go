package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/api"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/metrics"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/middleware"
)

// Deps are the components the routes are built from. RateLimiter and
// Metrics may be nil.
type Deps struct {
	Handler        *api.MealHandler
	RateLimiter    *middleware.RateLimiter
	Metrics        *metrics.Metrics
	Health         map[string]api.Pinger
	AllowedOrigins []string
	Logger         *zap.Logger
}

// SetupRouter configures the application routes
func SetupRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.CORS(deps.AllowedOrigins),
	)

	router.GET("/health", api.HealthCheck(deps.Health))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	var generateLimit gin.HandlerFunc
	if deps.RateLimiter != nil {
		generateLimit = deps.RateLimiter.RateLimitMiddleware()
	}

	v1 := router.Group("/api/v1")
	deps.Handler.RegisterRoutes(v1, generateLimit)

	return router
}
