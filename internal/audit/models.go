package audit

import (
	"context"
	"time"
)

// Category groups events by the surface that produced them.
type Category string

const (
	CategorySubmission Category = "submission"
	CategoryPrivacy    Category = "privacy"
	CategoryAdmin      Category = "admin"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Subject identifies the
// affected record (a respondent or response ID), never the person.
type Event struct {
	Timestamp time.Time
	Category  Category
	Action    string
	Subject   string
	RequestID string
	Detail    map[string]any
}

// Store is an append-only event log.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink accepts events from domain code. Implementations decide whether the
// write is synchronous or queued.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}
