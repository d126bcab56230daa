package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrBackendUnavailable signals that the remote counter store could not
// complete an operation. It never crosses the engine boundary; the engine
// absorbs it by serving the call from the local store.
var ErrBackendUnavailable = errors.New("remote rate limit backend unavailable")

// LimitExceededError is raised when the counter for a key passes its class
// quota. It is the only error the limiter surfaces to callers.
type LimitExceededError struct {
	Class      string
	Limit      int
	ResetAt    time.Time
	RetryAfter time.Duration
	Backend    Backend
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for class %q, retry after %ds", e.Class, e.RetryAfterSeconds())
}

// RetryAfterSeconds reports the retry delay in whole seconds, rounded up
// and never below one so callers are not told to retry inside the window.
func (e *LimitExceededError) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// AsLimitExceeded unwraps err into a LimitExceededError when it is one.
func AsLimitExceeded(err error) (*LimitExceededError, bool) {
	var exceeded *LimitExceededError
	if errors.As(err, &exceeded) {
		return exceeded, true
	}
	return nil, false
}
