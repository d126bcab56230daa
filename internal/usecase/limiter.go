package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/port"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/infra/logger"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/repository/memory"
)

// Limiter enforces per-identifier request quotas. It prefers the shared
// remote store when one is configured and ready, and degrades to the
// in-process store for the duration of a single call on any remote
// failure. The only error it surfaces is *domain.LimitExceededError.
type Limiter struct {
	classes *domain.ClassRegistry
	local   *memory.WindowStore
	remote  port.RemoteWindowStore
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// CheckResult carries the outcome of an asynchronous check.
type CheckResult struct {
	Status domain.QuotaStatus
	Err    error
}

// LimiterOption customises a Limiter.
type LimiterOption func(*Limiter)

// WithClock injects a custom clock (primarily for testing).
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMetrics attaches decision counters.
func WithMetrics(m *Metrics) LimiterOption {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// NewLimiter builds the engine. remote may be nil, in which case every
// decision is served locally.
func NewLimiter(classes *domain.ClassRegistry, local *memory.WindowStore, remote port.RemoteWindowStore, log *zap.Logger, opts ...LimiterOption) *Limiter {
	if classes == nil {
		classes = domain.DefaultClassRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}

	l := &Limiter{
		classes: classes,
		local:   local,
		remote:  remote,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check increments the counter for (identifier, class) and evaluates the
// quota. The request that brings the counter exactly to the class maximum
// is still admitted; the one after it is the first rejected.
func (l *Limiter) Check(ctx context.Context, identifier, className string) (domain.QuotaStatus, error) {
	cls := l.classes.Get(className)
	key := counterKey(cls.Name, identifier)

	win, backend := l.increment(ctx, key, identifier, cls)

	if win.Count > int64(cls.MaxRequests) {
		l.metrics.ObserveDecision(cls.Name, backend, false)
		return domain.QuotaStatus{}, &domain.LimitExceededError{
			Class:      cls.Name,
			Limit:      cls.MaxRequests,
			ResetAt:    win.ResetAt,
			RetryAfter: win.ResetAt.Sub(l.now()),
			Backend:    backend,
		}
	}

	remaining := cls.MaxRequests - int(win.Count)
	if remaining < 0 {
		remaining = 0
	}

	l.metrics.ObserveDecision(cls.Name, backend, true)
	return domain.QuotaStatus{
		Class:     cls.Name,
		Limit:     cls.MaxRequests,
		Remaining: remaining,
		ResetAt:   win.ResetAt,
		Backend:   backend,
	}, nil
}

// CheckAsync runs Check in its own goroutine and delivers the outcome on
// the returned channel. It exists for call sites that select over the
// completion signal; new synchronous call sites should use Check.
func (l *Limiter) CheckAsync(ctx context.Context, identifier, className string) <-chan CheckResult {
	out := make(chan CheckResult, 1)
	go func() {
		status, err := l.Check(ctx, identifier, className)
		out <- CheckResult{Status: status, Err: err}
		close(out)
	}()
	return out
}

// Peek reads current usage for (identifier, class) without incrementing,
// from the same backend an increment would use right now.
func (l *Limiter) Peek(ctx context.Context, identifier, className string) domain.QuotaUsage {
	cls := l.classes.Get(className)
	key := counterKey(cls.Name, identifier)

	win, ok, backend := l.peek(ctx, key)

	usage := domain.QuotaUsage{
		Class:     cls.Name,
		Limit:     cls.MaxRequests,
		Remaining: cls.MaxRequests,
		Backend:   backend,
	}
	if !ok {
		return usage
	}

	usage.Used = int(win.Count)
	usage.Remaining = cls.MaxRequests - usage.Used
	if usage.Remaining < 0 {
		usage.Remaining = 0
	}
	usage.ResetAt = win.ResetAt
	return usage
}

// Reset deletes the counter for (identifier, class). The local counter is
// always cleared as well, so counts accumulated during a degradation do
// not leak into the fresh window. Resetting an absent key succeeds.
func (l *Limiter) Reset(ctx context.Context, identifier, className string) bool {
	cls := l.classes.Get(className)
	key := counterKey(cls.Name, identifier)

	if l.remote != nil && l.remote.Ready() {
		if err := l.remote.Reset(ctx, key); err != nil {
			l.logDegraded("reset", cls.Name, identifier, err)
		}
	}

	_ = l.local.Reset(ctx, key)
	return true
}

// Status returns an introspection snapshot without touching any counter.
func (l *Limiter) Status(_ context.Context) domain.EngineStatus {
	remoteConnected := l.remote != nil && l.remote.Ready()

	backend := domain.BackendLocal
	if remoteConnected {
		backend = domain.BackendRemote
	}

	return domain.EngineStatus{
		Backend:         backend,
		RemoteConnected: remoteConnected,
		LocalEntries:    l.local.Len(),
		Classes:         l.classes.All(),
	}
}

func (l *Limiter) increment(ctx context.Context, key, identifier string, cls domain.LimitClass) (port.CounterWindow, domain.Backend) {
	if l.remote != nil && l.remote.Ready() {
		win, err := l.remote.Increment(ctx, key, cls.Window)
		if err == nil {
			return win, domain.BackendRemote
		}
		l.logDegraded("increment", cls.Name, identifier, err)
		l.metrics.ObserveFallback()
	}

	win, _ := l.local.Increment(ctx, key, cls.Window)
	return win, domain.BackendLocal
}

func (l *Limiter) peek(ctx context.Context, key string) (port.CounterWindow, bool, domain.Backend) {
	if l.remote != nil && l.remote.Ready() {
		win, ok, err := l.remote.Peek(ctx, key)
		if err == nil {
			return win, ok, domain.BackendRemote
		}
		l.logDegraded("peek", "", "", err)
		l.metrics.ObserveFallback()
	}

	win, ok, _ := l.local.Peek(ctx, key)
	return win, ok, domain.BackendLocal
}

func (l *Limiter) logDegraded(op, class, identifier string, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if class != "" {
		fields = append(fields, zap.String("class", class))
	}
	if identifier != "" {
		fields = append(fields, zap.String("identifier", logger.MaskIdentifier(identifier)))
	}
	l.logger.Warn("remote rate limit backend unavailable, serving from local store", fields...)
}

func counterKey(className, identifier string) string {
	return className + ":" + identifier
}
