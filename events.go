package webfiles

import (
	"context"
	"time"
)

// EventKind distinguishes notification events.
type EventKind string

const (
	FileCreated EventKind = "created"
	FileDeleted EventKind = "deleted"
)

// Event is emitted after a successful create or delete. Ephemeral; there is no
// persistence or delivery guarantee.
type Event struct {
	Kind      EventKind
	Filename  string
	Timestamp time.Time
}

// NewEvent stamps an event with the current time.
func NewEvent(kind EventKind, filename string) Event {
	return Event{Kind: kind, Filename: filename, Timestamp: time.Now()}
}

// Subscriber consumes notification events. Returned errors and panics are
// swallowed by the bus and never reach the request that triggered the event.
type Subscriber interface {
	Notify(ctx context.Context, ev Event) error
}

// SubscriberFunc adapts a plain function to [Subscriber].
type SubscriberFunc func(ctx context.Context, ev Event) error

func (f SubscriberFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Publisher accepts events without blocking the caller or reporting subscriber
// outcomes.
type Publisher interface {
	Publish(ev Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
