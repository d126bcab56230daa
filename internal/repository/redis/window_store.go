package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/port"
)

// DefaultOperationTimeout bounds every remote call so no request handler
// blocks indefinitely on a dead store.
const DefaultOperationTimeout = 2 * time.Second

// Liveness reports and records remote connectivity. The infra client
// implements it; tests substitute a stub.
type Liveness interface {
	Ready() bool
	ReportOutcome(err error)
}

// WindowStoreConfig configures key namespacing and timeouts for the
// remote store.
type WindowStoreConfig struct {
	KeyPrefix        string
	OperationTimeout time.Duration
}

// WindowStore persists fixed-window counters in Redis, shared by every
// process instance. Increment runs as a single server-side script, so
// concurrent increments of the same key from different instances are
// serialized by Redis itself.
type WindowStore struct {
	client *redis.Client
	live   Liveness
	cfg    WindowStoreConfig
}

// NewWindowStore constructs a store using the provided Redis client,
// liveness tracker, and config.
func NewWindowStore(client *redis.Client, live Liveness, cfg WindowStoreConfig) *WindowStore {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultOperationTimeout
	}
	return &WindowStore{client: client, live: live, cfg: cfg}
}

// incrScript increments the counter and applies the window expiry only on
// first touch. Running it as one script is what keeps "increment" and
// "conditionally set expiry" atomic: applied non-atomically, a lost expiry
// leaves a window that never resets, and an unconditional one resets the
// window on every call. The PTTL<0 branch repairs a key that somehow lost
// its expiry.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Increment atomically bumps the counter for key and returns the updated
// window. Any transport or protocol failure is reported to the liveness
// tracker and surfaced as ErrBackendUnavailable.
func (s *WindowStore) Increment(ctx context.Context, key string, window time.Duration) (port.CounterWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	res, err := incrScript.Run(ctx, s.client, []string{s.key(key)}, window.Milliseconds()).Int64Slice()
	if err == nil && len(res) != 2 {
		err = fmt.Errorf("unexpected script result %v", res)
	}
	s.live.ReportOutcome(err)
	if err != nil {
		return port.CounterWindow{}, fmt.Errorf("%w: increment window: %v", domain.ErrBackendUnavailable, err)
	}

	return port.CounterWindow{
		Count:   res[0],
		ResetAt: time.Now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// Peek reads the counter and its remaining TTL without incrementing.
func (s *WindowStore) Peek(ctx context.Context, key string) (port.CounterWindow, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	k := s.key(key)

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		s.live.ReportOutcome(err)
		return port.CounterWindow{}, false, fmt.Errorf("%w: peek window: %v", domain.ErrBackendUnavailable, err)
	}
	s.live.ReportOutcome(nil)

	if errors.Is(getCmd.Err(), redis.Nil) {
		return port.CounterWindow{}, false, nil
	}

	count, err := strconv.ParseInt(getCmd.Val(), 10, 64)
	if err != nil {
		return port.CounterWindow{}, false, fmt.Errorf("parse counter value: %w", err)
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		// Key expired between the two reads.
		return port.CounterWindow{}, false, nil
	}

	return port.CounterWindow{Count: count, ResetAt: time.Now().Add(ttl)}, true, nil
}

// Reset deletes the counter for key. Deleting an absent key succeeds.
func (s *WindowStore) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	err := s.client.Del(ctx, s.key(key)).Err()
	s.live.ReportOutcome(err)
	if err != nil {
		return fmt.Errorf("%w: reset window: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// Ready reports whether the remote store should be attempted at all.
func (s *WindowStore) Ready() bool {
	return s.live.Ready()
}

func (s *WindowStore) key(key string) string {
	if s.cfg.KeyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.cfg.KeyPrefix, key)
}

var _ port.RemoteWindowStore = (*WindowStore)(nil)
