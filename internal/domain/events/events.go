// Package events defines domain events delivered through the transactional outbox.
package events

import (
	"context"

	"dsrsales/internal/core/id"
)

// Event types.
const (
	SaleCompleted = "sale.completed"
	SaleReturned  = "sale.returned"
	SaleUndone    = "sale.undone"
)

// Event is a fact recorded together with the change that caused it.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher stores events. Publish must run inside the business transaction
// so the event commits or rolls back with it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
