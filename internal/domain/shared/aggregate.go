package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and timestamps shared by every stored record.
// Timestamps are UTC with microsecond precision so they survive a round
// trip through Postgres unchanged.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() { e.UpdatedAt = Now() }

// Now is the clock used for entity and event timestamps
func Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// EventSource is anything that buffers domain events until its changes are
// committed. Services take the events after a successful write and publish
// them.
type EventSource interface {
	TakeEvents() []DomainEvent
}

// BaseAggregateRoot is embedded by orders, batches and users. Version backs
// optimistic locking: repositories update WHERE version matches and then
// call IncrementVersion.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot starts a fresh aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// Record buffers an event raised by a state change
func (a *BaseAggregateRoot) Record(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// Events returns the buffered events without clearing them
func (a *BaseAggregateRoot) Events() []DomainEvent { return a.pending }

// TakeEvents returns the buffered events and clears the buffer
func (a *BaseAggregateRoot) TakeEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

// DiscardEvents drops buffered events, e.g. after a rejected write
func (a *BaseAggregateRoot) DiscardEvents() { a.pending = nil }
