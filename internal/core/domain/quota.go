package domain

import "time"

// Backend identifies which counter store served a rate-limit decision.
type Backend string

const (
	// BackendRemote indicates the decision was made against the shared
	// remote counter store.
	BackendRemote Backend = "remote"
	// BackendLocal indicates the decision was made against the in-process
	// counter store.
	BackendLocal Backend = "local"
)

// QuotaStatus is the outcome of an admitted rate-limit check. It is never
// persisted; each check produces a fresh value.
type QuotaStatus struct {
	Class     string    `json:"class"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Backend   Backend   `json:"backend"`
}

// QuotaUsage is a read-only view of the current counter for a key. Used is
// reported directly; a key with no running window has Used 0 and a zero
// ResetAt.
type QuotaUsage struct {
	Class     string    `json:"class"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at,omitzero"`
	Backend   Backend   `json:"backend"`
}

// EngineStatus is the introspection snapshot exposed for health checks.
// Producing it never mutates a counter.
type EngineStatus struct {
	Backend         Backend      `json:"backend"`
	RemoteConnected bool         `json:"remote_connected"`
	LocalEntries    int          `json:"local_entries"`
	Classes         []LimitClass `json:"classes"`
}
