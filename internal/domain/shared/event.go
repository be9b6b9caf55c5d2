package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate, such as an order being
// placed or a batch changing status
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

// EventMeta is embedded by concrete events
type EventMeta struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	At            time.Time `json:"occurredAt"`
	AggregateKind string    `json:"aggregateType"`
	Aggregate     uuid.UUID `json:"aggregateId"`
}

func NewEventMeta(eventType, aggregateKind string, aggregateID uuid.UUID) EventMeta {
	return EventMeta{
		ID:            uuid.New(),
		Type:          eventType,
		At:            Now(),
		AggregateKind: aggregateKind,
		Aggregate:     aggregateID,
	}
}

func (m *EventMeta) EventID() uuid.UUID     { return m.ID }
func (m *EventMeta) EventType() string      { return m.Type }
func (m *EventMeta) OccurredAt() time.Time  { return m.At }
func (m *EventMeta) AggregateID() uuid.UUID { return m.Aggregate }

// EventHandler consumes published events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means all
	EventTypes() []string
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
