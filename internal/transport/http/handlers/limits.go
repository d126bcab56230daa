package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

// LimiterService is the engine surface the introspection API consumes.
type LimiterService interface {
	Peek(ctx context.Context, identifier, class string) domain.QuotaUsage
	Reset(ctx context.Context, identifier, class string) bool
	Status(ctx context.Context) domain.EngineStatus
}

// LimitsHandler exposes limiter introspection and administration.
type LimitsHandler struct {
	limiter LimiterService
}

// NewLimitsHandler builds a handler around the limiter engine.
func NewLimitsHandler(limiter LimiterService) *LimitsHandler {
	return &LimitsHandler{limiter: limiter}
}

// RegisterRoutes mounts the limiter endpoints on the provided group.
func (h *LimitsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/status", h.Status)
	rg.GET("/:class/:identifier", h.Usage)
	rg.DELETE("/:class/:identifier", h.Reset)
}

// Status returns the engine introspection snapshot. It never mutates a
// counter.
func (h *LimitsHandler) Status(c *gin.Context) {
	st := h.limiter.Status(c.Request.Context())

	c.JSON(http.StatusOK, EngineStatusResponse{
		Backend:         string(st.Backend),
		RemoteConnected: st.RemoteConnected,
		LocalEntries:    st.LocalEntries,
		Classes:         classResponses(st.Classes),
	})
}

// Usage reports current consumption for a (class, identifier) pair
// without counting the request against the quota.
func (h *LimitsHandler) Usage(c *gin.Context) {
	class := c.Param("class")
	identifier := c.Param("identifier")

	usage := h.limiter.Peek(c.Request.Context(), identifier, class)

	resp := UsageResponse{
		Class:      usage.Class,
		Identifier: identifier,
		Limit:      usage.Limit,
		Used:       usage.Used,
		Remaining:  usage.Remaining,
		Backend:    string(usage.Backend),
	}
	if !usage.ResetAt.IsZero() {
		resetAt := usage.ResetAt
		resp.ResetAt = &resetAt
	}

	c.JSON(http.StatusOK, resp)
}

// Reset clears the counter for a (class, identifier) pair. Clearing an
// unknown pair is a success.
func (h *LimitsHandler) Reset(c *gin.Context) {
	class := c.Param("class")
	identifier := c.Param("identifier")

	ok := h.limiter.Reset(c.Request.Context(), identifier, class)

	c.JSON(http.StatusOK, ResetResponse{
		Class:      class,
		Identifier: identifier,
		Reset:      ok,
	})
}
