package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

type stubLimiter struct {
	usage     domain.QuotaUsage
	status    domain.EngineStatus
	resetKeys []string
}

func (s *stubLimiter) Peek(_ context.Context, identifier, class string) domain.QuotaUsage {
	return s.usage
}

func (s *stubLimiter) Reset(_ context.Context, identifier, class string) bool {
	s.resetKeys = append(s.resetKeys, class+":"+identifier)
	return true
}

func (s *stubLimiter) Status(_ context.Context) domain.EngineStatus {
	return s.status
}

func newLimitsRouter(t *testing.T, limiter LimiterService) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewLimitsHandler(limiter).RegisterRoutes(router.Group("/api/v1/ratelimit"))
	return router
}

func TestLimitsHandler_Status(t *testing.T) {
	limiter := &stubLimiter{status: domain.EngineStatus{
		Backend:         domain.BackendRemote,
		RemoteConnected: true,
		LocalEntries:    3,
		Classes:         domain.BuiltinClasses(),
	}}

	router := newLimitsRouter(t, limiter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ratelimit/status", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp EngineStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Backend != "remote" || !resp.RemoteConnected {
		t.Fatalf("unexpected backend state: %+v", resp)
	}
	if resp.LocalEntries != 3 {
		t.Fatalf("expected 3 local entries, got %d", resp.LocalEntries)
	}
	if len(resp.Classes) != 5 {
		t.Fatalf("expected 5 classes, got %d", len(resp.Classes))
	}
	if resp.Classes[1].Window != "5m0s" {
		t.Fatalf("expected auth window 5m0s, got %q", resp.Classes[1].Window)
	}
}

func TestLimitsHandler_Usage(t *testing.T) {
	resetAt := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)
	limiter := &stubLimiter{usage: domain.QuotaUsage{
		Class:     "api",
		Limit:     60,
		Used:      21,
		Remaining: 39,
		ResetAt:   resetAt,
		Backend:   domain.BackendLocal,
	}}

	router := newLimitsRouter(t, limiter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ratelimit/api/user-42", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp UsageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Used != 21 || resp.Remaining != 39 {
		t.Fatalf("unexpected usage: %+v", resp)
	}
	if resp.Identifier != "user-42" {
		t.Fatalf("expected identifier user-42, got %q", resp.Identifier)
	}
	if resp.ResetAt == nil || !resp.ResetAt.Equal(resetAt) {
		t.Fatalf("unexpected reset time: %v", resp.ResetAt)
	}
}

func TestLimitsHandler_UsageAbsentKeyOmitsReset(t *testing.T) {
	limiter := &stubLimiter{usage: domain.QuotaUsage{
		Class:     "api",
		Limit:     60,
		Remaining: 60,
		Backend:   domain.BackendLocal,
	}}

	router := newLimitsRouter(t, limiter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ratelimit/api/ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, present := raw["reset_at"]; present {
		t.Fatalf("expected reset_at to be omitted for an idle key")
	}
}

func TestLimitsHandler_Reset(t *testing.T) {
	limiter := &stubLimiter{}
	router := newLimitsRouter(t, limiter)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/ratelimit/auth/203.0.113.5", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp ResetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Reset {
		t.Fatalf("expected reset true")
	}
	if len(limiter.resetKeys) != 1 || limiter.resetKeys[0] != "auth:203.0.113.5" {
		t.Fatalf("unexpected reset keys: %v", limiter.resetKeys)
	}
}
