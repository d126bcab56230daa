package usecase

import (
	"testing"
	"time"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

func TestHeaders(t *testing.T) {
	resetAt := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

	h := Headers(domain.QuotaStatus{
		Class:     "api",
		Limit:     60,
		Remaining: 12,
		ResetAt:   resetAt,
		Backend:   domain.BackendRemote,
	})

	if h[HeaderLimit] != "60" {
		t.Fatalf("expected limit header 60, got %q", h[HeaderLimit])
	}
	if h[HeaderRemaining] != "12" {
		t.Fatalf("expected remaining header 12, got %q", h[HeaderRemaining])
	}
	if h[HeaderReset] != "1762162200" {
		t.Fatalf("expected reset header 1762162200, got %q", h[HeaderReset])
	}
	if h[HeaderBackend] != "remote" {
		t.Fatalf("expected backend header remote, got %q", h[HeaderBackend])
	}
	if _, ok := h[HeaderRetryAfter]; ok {
		t.Fatalf("allowed status must not carry Retry-After")
	}
}

func TestHeaders_NegativeRemainingIsFloored(t *testing.T) {
	h := Headers(domain.QuotaStatus{Limit: 10, Remaining: -3})
	if h[HeaderRemaining] != "0" {
		t.Fatalf("expected remaining floored to 0, got %q", h[HeaderRemaining])
	}
}

func TestExceededHeaders(t *testing.T) {
	resetAt := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

	h := ExceededHeaders(&domain.LimitExceededError{
		Class:      "auth",
		Limit:      10,
		ResetAt:    resetAt,
		RetryAfter: 42500 * time.Millisecond,
		Backend:    domain.BackendLocal,
	})

	if h[HeaderRemaining] != "0" {
		t.Fatalf("expected remaining 0, got %q", h[HeaderRemaining])
	}
	if h[HeaderRetryAfter] != "43" {
		t.Fatalf("expected retry-after ceil'd to 43, got %q", h[HeaderRetryAfter])
	}
	if h[HeaderBackend] != "local" {
		t.Fatalf("expected backend local, got %q", h[HeaderBackend])
	}
}
