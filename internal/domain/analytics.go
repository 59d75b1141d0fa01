package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a widget analytics event
type Event struct {
	ProjectID uuid.UUID      `json:"project_id"`
	VisitorID string         `json:"visitor_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Type      string         `json:"event_type"`
	Label     string         `json:"event_label,omitempty"`
	Data      map[string]any `json:"event_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// EventTypes is the fixed allow-list of accepted event types, built once at
// startup and shared read-only.
type EventTypes map[string]struct{}

// DefaultEventTypes returns the allow-list the analytics endpoint validates
// against.
func DefaultEventTypes() EventTypes {
	types := []string{
		"widget_loaded",
		"widget_opened",
		"widget_closed",
		"suggestion_clicked",
		"question_submitted",
		"answer_received",
		"conversation_reset",
		"feedback",
	}
	set := make(EventTypes, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Allowed reports whether the event type is accepted
func (e EventTypes) Allowed(t string) bool {
	_, ok := e[t]
	return ok
}

// EventRepository defines the interface for analytics event storage
type EventRepository interface {
	Insert(ctx context.Context, event *Event) error
}
