package audit

import (
	"context"
	"time"
)

// Publisher writes events straight to the store. It is append-only and keeps
// persistence behind the Store interface so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// ChannelSink queues events onto a channel for a Worker to persist. The send
// never blocks the request path: when the inbox is full the event is dropped,
// which is acceptable for an operational trail but would not be for billing.
type ChannelSink struct {
	inbox chan<- Event
}

func NewChannelSink(inbox chan<- Event) *ChannelSink {
	return &ChannelSink{inbox: inbox}
}

func (s *ChannelSink) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case s.inbox <- event:
	default:
	}
	return nil
}

// Discard ignores every event. Used where auditing is not configured.
type Discard struct{}

func (Discard) Emit(context.Context, Event) error { return nil }
