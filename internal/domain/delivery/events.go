package delivery

import (
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EventTypeBatchStatusChanged is raised on every accepted batch transition
const EventTypeBatchStatusChanged = "BatchStatusChanged"

// BatchStatusChangedEvent records a batch status change
type BatchStatusChangedEvent struct {
	shared.EventMeta
	BatchNumber string        `json:"batch_number"`
	OrderID     uuid.UUID     `json:"order_id"`
	FromStatus  BatchStatus   `json:"from_status"`
	ToStatus    BatchStatus   `json:"to_status"`
	ActorID     uuid.UUID     `json:"actor_id"`
	ActorRole   identity.Role `json:"actor_role"`
}

// NewBatchStatusChangedEvent creates a BatchStatusChangedEvent
func NewBatchStatusChangedEvent(b *Batch, from, to BatchStatus, actor identity.Actor) *BatchStatusChangedEvent {
	return &BatchStatusChangedEvent{
		EventMeta: shared.NewEventMeta(EventTypeBatchStatusChanged, AggregateTypeBatch, b.ID),
		BatchNumber:     b.BatchNumber,
		OrderID:         b.OrderID,
		FromStatus:      from,
		ToStatus:        to,
		ActorID:         actor.UserID,
		ActorRole:       actor.Role,
	}
}
