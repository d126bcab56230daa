package usecase

import (
	"strconv"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

// Standard rate-limit response headers.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderBackend    = "X-RateLimit-Backend"
	HeaderRetryAfter = "Retry-After"
)

// Headers renders a quota status as response header values. The reset
// header carries epoch seconds. Pure function, no side effects.
func Headers(status domain.QuotaStatus) map[string]string {
	remaining := status.Remaining
	if remaining < 0 {
		remaining = 0
	}

	return map[string]string{
		HeaderLimit:     strconv.Itoa(status.Limit),
		HeaderRemaining: strconv.Itoa(remaining),
		HeaderReset:     strconv.FormatInt(status.ResetAt.Unix(), 10),
		HeaderBackend:   string(status.Backend),
	}
}

// ExceededHeaders renders the headers for a rejected request, including
// the retry delay in whole seconds.
func ExceededHeaders(exceeded *domain.LimitExceededError) map[string]string {
	return map[string]string{
		HeaderLimit:      strconv.Itoa(exceeded.Limit),
		HeaderRemaining:  "0",
		HeaderReset:      strconv.FormatInt(exceeded.ResetAt.Unix(), 10),
		HeaderBackend:    string(exceeded.Backend),
		HeaderRetryAfter: strconv.Itoa(exceeded.RetryAfterSeconds()),
	}
}
