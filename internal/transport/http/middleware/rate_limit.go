package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
	appLogger "github.com/adityachilka1/nicu-pediasense-sub002/internal/infra/logger"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/usecase"
)

const (
	rateLimitProblemType  = "https://pediasense.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// QuotaChecker is the engine surface the middleware consumes.
type QuotaChecker interface {
	Check(ctx context.Context, identifier, class string) (domain.QuotaStatus, error)
}

// IdentifierFunc extracts the identifier used to scope rate limits
// (client IP, authenticated user id).
type IdentifierFunc func(*gin.Context) (string, bool)

// ClientIPIdentifier builds an IdentifierFunc using the request's client
// IP, honoring X-Forwarded-For via gin's resolution.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// RateLimiter wires the quota engine into Gin handlers.
type RateLimiter struct {
	engine QuotaChecker
	logger *zap.Logger
}

// ProblemDetails represents an RFC 9457 compatible error payload for rate
// limits.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(engine QuotaChecker, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		engine: engine,
		logger: logger,
	}
}

// Limit enforces the named classes for every request, identifying callers
// by client IP. All classes are counted; the most restrictive admitted
// status drives the response headers, and the first exceeded class
// rejects the request.
func (rl *RateLimiter) Limit(classes ...string) gin.HandlerFunc {
	return rl.LimitWith(ClientIPIdentifier(), classes...)
}

// LimitWith is Limit with a custom identifier extractor.
func (rl *RateLimiter) LimitWith(identifier IdentifierFunc, classes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.engine == nil || len(classes) == 0 {
			c.Next()
			return
		}

		id, ok := identifier(c)
		if !ok || id == "" {
			c.Next()
			return
		}

		var best *domain.QuotaStatus

		for _, class := range classes {
			status, err := rl.engine.Check(c.Request.Context(), id, class)
			if err != nil {
				if exceeded, ok := domain.AsLimitExceeded(err); ok {
					rl.applyHeaders(c, usecase.ExceededHeaders(exceeded))
					rl.respondRateLimited(c, exceeded)
					return
				}
				// The engine absorbs backend failures; anything else is
				// unexpected and must not block traffic.
				rl.logger.Error("rate limit check failed",
					zap.String("class", class),
					zap.String("identifier", appLogger.MaskIdentifier(id)),
					zap.Error(err),
				)
				continue
			}

			if best == nil || moreRestrictive(status, *best) {
				snapshot := status
				best = &snapshot
			}
		}

		if best != nil {
			rl.applyHeaders(c, usecase.Headers(*best))
		}

		c.Next()
	}
}

func moreRestrictive(candidate, current domain.QuotaStatus) bool {
	if candidate.Remaining != current.Remaining {
		return candidate.Remaining < current.Remaining
	}
	return candidate.ResetAt.Before(current.ResetAt)
}

func (rl *RateLimiter) applyHeaders(c *gin.Context, headers map[string]string) {
	for name, value := range headers {
		c.Writer.Header().Set(name, value)
	}
}

func (rl *RateLimiter) respondRateLimited(c *gin.Context, exceeded *domain.LimitExceededError) {
	retrySeconds := exceeded.RetryAfterSeconds()

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	problem := ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", retrySeconds),
		Instance:   instance,
		RetryAfter: retrySeconds,
		TraceID:    GetTraceID(c),
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, problem)
}
