// Package auditlog provides structured logging plus best-effort NATS
// fan-out of a small set of notable events (line-crossing reconciliation,
// risk heuristic triggers). This is supplemented observability, grounded
// on the teacher's internal/nvr event envelope and NATS publisher.
package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// Event is the normalized envelope published to the configured NATS
// subject, mirroring the teacher's VmsEvent shape narrowed to this
// coordinator's domain.
type Event struct {
	EventID    uuid.UUID      `json:"event_id"`
	Source     string         `json:"source"` // "cctv-coordinator"
	EventType  string         `json:"event_type"`
	AccountID  string         `json:"account_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// NewEvent builds an Event stamped with a fresh id and the current time.
func NewEvent(eventType string, detail map[string]any) Event {
	return Event{
		EventID:    uuid.New(),
		Source:     "cctv-coordinator",
		EventType:  eventType,
		OccurredAt: time.Now(),
		Detail:     detail,
	}
}
