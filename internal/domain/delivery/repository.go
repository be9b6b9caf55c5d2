package delivery

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchRepository persists delivery batches
type BatchRepository interface {
	Create(ctx context.Context, batch *Batch) error
	// Update is version-checked like OrderRepository.Update
	Update(ctx context.Context, batch *Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Batch, error)
	FindByBatchNumber(ctx context.Context, batchNumber string) (*Batch, error)
	FindByAgent(ctx context.Context, agentID uuid.UUID, filter shared.Filter) ([]*Batch, int64, error)
	// AssignUnassigned assigns the agent to the order's batch when it has none.
	// It reports whether a batch was updated.
	AssignUnassigned(ctx context.Context, orderID, agentID uuid.UUID) (bool, error)
}
