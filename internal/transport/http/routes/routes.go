package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/infra/config"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/transport/http/handlers"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/transport/http/middleware"
)

// CacheChecker exposes readiness behaviour for the remote counter store.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Limiter     handlers.LimiterService
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Cache       CacheChecker
	Classes     []domain.LimitClass
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.Metrics.Handler())
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))

	healthOptions := make([]handlers.HealthOption, 0, 1)
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		limitsGroup := api.Group("/ratelimit")
		if deps.RateLimiter != nil {
			limitsGroup.Use(deps.RateLimiter.Limit("api"))
		}
		handlers.NewLimitsHandler(deps.Limiter).RegisterRoutes(limitsGroup)

		// One guarded endpoint per class so the header and 429 contracts
		// are observable without a real workload behind them.
		if deps.RateLimiter != nil {
			demo := api.Group("/demo")
			for _, cls := range deps.Classes {
				demo.GET("/"+cls.Name, deps.RateLimiter.Limit(cls.Name), handlers.Demo(cls.Name))
			}
		}
	}

	return r
}
