package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/port"
)

// DefaultSweepInterval is how often expired windows are evicted when no
// interval is configured.
const DefaultSweepInterval = time.Minute

type entry struct {
	count   int64
	resetAt time.Time
}

// WindowStore keeps fixed-window counters in an in-process map. It cannot
// fail and serves as the fallback of last resort when the remote store is
// unreachable. A background sweep bounds memory to the number of distinct
// active identifiers.
type WindowStore struct {
	mu      sync.Mutex
	entries map[string]entry

	logger *zap.Logger
	now    func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWindowStore builds a local store and starts its sweep goroutine. The
// store must be closed when its owner shuts down.
func NewWindowStore(logger *zap.Logger, opts ...StoreOption) *WindowStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &WindowStore{
		entries: make(map[string]entry),
		logger:  logger,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	cfg := storeConfig{sweepInterval: DefaultSweepInterval}
	for _, opt := range opts {
		opt(s, &cfg)
	}

	go s.sweep(cfg.sweepInterval)

	return s
}

type storeConfig struct {
	sweepInterval time.Duration
}

// StoreOption customises store construction.
type StoreOption func(*WindowStore, *storeConfig)

// WithClock injects a custom clock (primarily for testing).
func WithClock(now func() time.Time) StoreOption {
	return func(s *WindowStore, _ *storeConfig) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepInterval overrides how often expired windows are evicted.
func WithSweepInterval(interval time.Duration) StoreOption {
	return func(_ *WindowStore, cfg *storeConfig) {
		if interval > 0 {
			cfg.sweepInterval = interval
		}
	}
}

// Increment bumps the counter for key, replacing any lapsed window with a
// fresh one. The whole read-modify-write runs under the store lock, so
// concurrent increments of the same key never lose updates.
func (s *WindowStore) Increment(_ context.Context, key string, window time.Duration) (port.CounterWindow, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = entry{count: 0, resetAt: now.Add(window)}
	}
	e.count++
	s.entries[key] = e

	return port.CounterWindow{Count: e.count, ResetAt: e.resetAt}, nil
}

// Peek reads the counter without incrementing. An expired window reads as
// absent.
func (s *WindowStore) Peek(_ context.Context, key string) (port.CounterWindow, bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		return port.CounterWindow{}, false, nil
	}

	return port.CounterWindow{Count: e.count, ResetAt: e.resetAt}, true, nil
}

// Reset deletes the counter for key. Deleting an absent key is a no-op.
func (s *WindowStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len reports how many windows are currently held, expired ones included
// until the next sweep.
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Close stops the sweep goroutine. It is safe to call more than once.
func (s *WindowStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}

func (s *WindowStore) sweep(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if evicted := s.evictExpired(); evicted > 0 {
				s.logger.Debug("evicted expired rate limit windows", zap.Int("count", evicted))
			}
		}
	}
}

func (s *WindowStore) evictExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted
}
