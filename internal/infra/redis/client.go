package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/infra/config"
)

// Client wraps redis.Client with a liveness flag and lifecycle management.
// go-redis exposes no connection state, so the flag is maintained by a
// background ping loop plus the outcome of every store operation: a failed
// call demotes the remote immediately, a successful one promotes it.
type Client struct {
	client *redis.Client
	logger *zap.Logger
	cfg    config.RedisSettings

	ready atomic.Bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewClient initializes the Redis connection pool and starts the health
// check loop. An unreachable server is not a construction error: the
// client starts in a not-ready state and the limiter serves from its
// local store until connectivity returns.
func NewClient(cfg config.RedisSettings, logger *zap.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("redis host is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,

		// Connection pool settings
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	}

	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	c := &Client{
		client: redis.NewClient(opts),
		logger: logger,
		cfg:    cfg,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup, counters served locally until it recovers",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Error(err),
		)
	} else {
		c.ready.Store(true)
		logger.Info("redis connection established",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Int("db", cfg.DB),
			zap.Bool("tls_enabled", cfg.TLSEnabled),
		)
	}

	interval := cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go c.healthLoop(interval)

	return c, nil
}

// Client returns the underlying redis.Client for direct access.
func (c *Client) Client() *redis.Client {
	return c.client
}

// Ready reports whether the remote store is currently considered usable.
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// ReportOutcome records the result of a store operation, keeping the
// liveness flag in step with what callers actually observe.
func (c *Client) ReportOutcome(err error) {
	if err == nil {
		if !c.ready.Swap(true) {
			c.logger.Info("redis connectivity restored")
		}
		return
	}
	if c.ready.Swap(false) {
		c.logger.Warn("redis marked unavailable", zap.Error(err))
	}
}

// HealthCheck performs a ping to verify Redis connectivity and updates
// the liveness flag with the result.
func (c *Client) HealthCheck(ctx context.Context) error {
	err := c.client.Ping(ctx).Err()
	c.ReportOutcome(err)
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close stops the health loop and closes the connection pool.
func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done

	c.logger.Info("closing redis connection")
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics for monitoring.
func (c *Client) Stats() *redis.PoolStats {
	return c.client.PoolStats()
}

func (c *Client) healthLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			_ = c.HealthCheck(ctx)
			cancel()
		}
	}
}
