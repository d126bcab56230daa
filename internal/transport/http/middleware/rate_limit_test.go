package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

type fakeEngine struct {
	statuses map[string]domain.QuotaStatus
	errs     map[string]error
	calls    []string
}

func (f *fakeEngine) Check(_ context.Context, identifier, class string) (domain.QuotaStatus, error) {
	f.calls = append(f.calls, class+":"+identifier)
	if err, ok := f.errs[class]; ok {
		return domain.QuotaStatus{}, err
	}
	return f.statuses[class], nil
}

func newRouter(t *testing.T, engine QuotaChecker, classes ...string) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(engine, zaptest.NewLogger(t))

	router := gin.New()
	router.Use(EnrichContext())
	router.GET("/", limiter.Limit(classes...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimit_AllowedSetsQuotaHeaders(t *testing.T) {
	resetAt := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)
	engine := &fakeEngine{statuses: map[string]domain.QuotaStatus{
		"api": {Class: "api", Limit: 60, Remaining: 41, ResetAt: resetAt, Backend: domain.BackendRemote},
	}}

	router := newRouter(t, engine, "api")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:51442"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "60" {
		t.Fatalf("expected limit header 60, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "41" {
		t.Fatalf("expected remaining header 41, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Backend"); got != "remote" {
		t.Fatalf("expected backend header remote, got %q", got)
	}
	if got := rr.Header().Get("Retry-After"); got != "" {
		t.Fatalf("allowed response must not carry Retry-After, got %q", got)
	}
}

func TestRateLimit_ExceededReturns429WithProblemBody(t *testing.T) {
	engine := &fakeEngine{errs: map[string]error{
		"auth": &domain.LimitExceededError{
			Class:      "auth",
			Limit:      10,
			ResetAt:    time.Now().Add(90 * time.Second),
			RetryAfter: 90 * time.Second,
			Backend:    domain.BackendLocal,
		},
	}}

	router := newRouter(t, engine, "auth")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:51442"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "90" {
		t.Fatalf("expected Retry-After 90, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining 0, got %q", got)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem body: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("expected problem status 429, got %d", problem.Status)
	}
	if problem.RetryAfter != 90 {
		t.Fatalf("expected problem retry_after 90, got %d", problem.RetryAfter)
	}
	if problem.TraceID == "" {
		t.Fatalf("expected trace id in problem body")
	}
}

func TestRateLimit_MostRestrictiveClassDrivesHeaders(t *testing.T) {
	resetAt := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)
	engine := &fakeEngine{statuses: map[string]domain.QuotaStatus{
		"default": {Class: "default", Limit: 100, Remaining: 73, ResetAt: resetAt, Backend: domain.BackendLocal},
		"heavy":   {Class: "heavy", Limit: 10, Remaining: 2, ResetAt: resetAt, Backend: domain.BackendLocal},
	}}

	router := newRouter(t, engine, "default", "heavy")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:51442"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("expected most restrictive remaining 2, got %q", got)
	}
	if len(engine.calls) != 2 {
		t.Fatalf("expected both classes counted, got %v", engine.calls)
	}
}

func TestRateLimit_UnexpectedEngineErrorFailsOpen(t *testing.T) {
	engine := &fakeEngine{errs: map[string]error{
		"api": context.DeadlineExceeded,
	}}

	router := newRouter(t, engine, "api")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:51442"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200, got %d", rr.Code)
	}
}

func TestRateLimit_NoClassesIsPassthrough(t *testing.T) {
	engine := &fakeEngine{}
	router := newRouter(t, engine)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(engine.calls) != 0 {
		t.Fatalf("expected no engine calls, got %v", engine.calls)
	}
}
