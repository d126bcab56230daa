package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/port"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/infra/config"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/infra/logger"
	redisinfra "github.com/adityachilka1/nicu-pediasense-sub002/internal/infra/redis"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/repository/memory"
	redisrepo "github.com/adityachilka1/nicu-pediasense-sub002/internal/repository/redis"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/transport/http/middleware"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/transport/http/routes"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/usecase"
)

// Application owns the limiter, its stores, and the HTTP server, with an
// explicit construction/shutdown lifecycle.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	redis  *redisinfra.Client
	local  *memory.WindowStore
}

// New wires the service together. With Redis disabled the limiter runs
// purely on the local store; with Redis enabled but unreachable it starts
// degraded and recovers when connectivity returns.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	localStore := memory.NewWindowStore(log,
		memory.WithSweepInterval(cfg.RateLimit.SweepInterval),
	)

	var redisClient *redisinfra.Client
	var remoteStore port.RemoteWindowStore
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			_ = localStore.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		remoteStore = redisrepo.NewWindowStore(redisClient.Client(), redisClient, redisrepo.WindowStoreConfig{
			KeyPrefix:        cfg.Redis.KeyPrefix,
			OperationTimeout: cfg.Redis.OperationTimeout,
		})
	} else {
		log.Info("redis disabled, rate limiting is per-instance only")
	}

	limiterMetrics, err := usecase.NewMetrics(usecase.MetricsOptions{})
	if err != nil {
		closeAll(localStore, redisClient)
		return nil, fmt.Errorf("init limiter metrics: %w", err)
	}

	registry := domain.NewClassRegistry(cfg.RateLimit.LimitClasses()...)
	limiter := usecase.NewLimiter(registry, localStore, remoteStore, log,
		usecase.WithMetrics(limiterMetrics),
	)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		closeAll(localStore, redisClient)
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Limiter:     limiter,
		RateLimiter: middleware.NewRateLimiter(limiter, log),
		Metrics:     httpMetrics,
		Classes:     registry.All(),
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	return &Application{
		cfg:    cfg,
		engine: routes.Register(deps),
		logger: log,
		redis:  redisClient,
		local:  localStore,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.local != nil {
			_ = a.local.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting rate limit service",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.Bool("redis_enabled", a.cfg.Redis.Enabled),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func closeAll(local *memory.WindowStore, redisClient *redisinfra.Client) {
	if local != nil {
		_ = local.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
