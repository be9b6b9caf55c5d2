package ordering

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows order listings. Scope fields are set from the caller's
// role so that listings never cross ownership boundaries.
type OrderFilter struct {
	shared.Filter
	UserID          *uuid.UUID
	RestaurantID    *uuid.UUID
	DeliveryAgentID *uuid.UUID
	Status          *Status
}

// OrderRepository persists orders
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	// Update writes the order if its stored version equals order.Version and
	// bumps the version; otherwise it returns shared.ErrConcurrencyConflict.
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
	// ListClaimable returns unassigned orders a delivery agent may claim
	ListClaimable(ctx context.Context, filter shared.Filter) ([]*Order, int64, error)
	// ClaimForAgent atomically sets the delivery agent if the order is
	// unassigned and claimable. It reports whether a row was updated.
	ClaimForAgent(ctx context.Context, orderID, agentID uuid.UUID) (bool, error)
	SetBatchNumber(ctx context.Context, orderID uuid.UUID, batchNumber string) error
}

// PaymentRepository persists payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	Update(ctx context.Context, payment *Payment) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)
}
