package handlers

import (
	"time"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ClassResponse describes one limit class in API responses. Window is
// rendered as a duration string ("60s", "5m0s").
type ClassResponse struct {
	Name        string `json:"name"`
	Window      string `json:"window"`
	MaxRequests int    `json:"max_requests"`
}

// EngineStatusResponse is the introspection payload for the limiter.
type EngineStatusResponse struct {
	Backend         string          `json:"backend"`
	RemoteConnected bool            `json:"remote_connected"`
	LocalEntries    int             `json:"local_entries"`
	Classes         []ClassResponse `json:"classes"`
}

// UsageResponse reports current usage for one (class, identifier) pair.
type UsageResponse struct {
	Class      string     `json:"class"`
	Identifier string     `json:"identifier"`
	Limit      int        `json:"limit"`
	Used       int        `json:"used"`
	Remaining  int        `json:"remaining"`
	ResetAt    *time.Time `json:"reset_at,omitempty"`
	Backend    string     `json:"backend"`
}

// ResetResponse confirms a counter reset.
type ResetResponse struct {
	Class      string `json:"class"`
	Identifier string `json:"identifier"`
	Reset      bool   `json:"reset"`
}

func classResponses(classes []domain.LimitClass) []ClassResponse {
	out := make([]ClassResponse, 0, len(classes))
	for _, cls := range classes {
		out = append(out, ClassResponse{
			Name:        cls.Name,
			Window:      cls.Window.String(),
			MaxRequests: cls.MaxRequests,
		})
	}
	return out
}
