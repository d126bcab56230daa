package port

import (
	"context"
	"time"
)

// CounterWindow is the state of one fixed-window counter after an
// operation: how many requests landed in the window and when it lapses.
type CounterWindow struct {
	Count   int64
	ResetAt time.Time
}

// WindowStore defines the counter operations required to enforce
// fixed-window limits. Implementations must make Increment atomic per key:
// two concurrent increments of the same key both land and the final count
// reflects both.
type WindowStore interface {
	// Increment bumps the counter for key, starting a fresh window of the
	// provided length when none is running, and returns the updated state.
	Increment(ctx context.Context, key string, window time.Duration) (CounterWindow, error)
	// Peek reads the counter without incrementing. The second return is
	// false when no window is currently running for the key.
	Peek(ctx context.Context, key string) (CounterWindow, bool, error)
	// Reset deletes the counter for key. Resetting an absent key is a
	// no-op, not an error.
	Reset(ctx context.Context, key string) error
}

// RemoteWindowStore is a WindowStore backed by a shared networked store.
// Ready reports whether the store is currently worth attempting; callers
// skip straight to their fallback when it returns false.
type RemoteWindowStore interface {
	WindowStore
	Ready() bool
}
