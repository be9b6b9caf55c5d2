package delivery

import (
	"fmt"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeBatch is the aggregate type name used in events and audit rows
const AggregateTypeBatch = "batch"

// BatchStatus is the delivery run lifecycle state
type BatchStatus string

const (
	BatchCreated   BatchStatus = "created"
	BatchAssigned  BatchStatus = "assigned"
	BatchPickedUp  BatchStatus = "picked_up"
	BatchInTransit BatchStatus = "in_transit"
	BatchDelivered BatchStatus = "delivered"
	BatchFailed    BatchStatus = "failed"
	BatchCancelled BatchStatus = "cancelled"
)

var batchTable = map[BatchStatus][]BatchStatus{
	BatchCreated:   {BatchAssigned, BatchCancelled},
	BatchAssigned:  {BatchPickedUp, BatchCancelled},
	BatchPickedUp:  {BatchInTransit},
	BatchInTransit: {BatchDelivered, BatchFailed},
	BatchDelivered: {},
	BatchFailed:    {},
	BatchCancelled: {},
}

// assigned is reachable only through Assign
var batchRoleTargets = map[identity.Role][]BatchStatus{
	identity.RoleRestaurantOwner: {BatchCancelled},
	identity.RoleDeliveryGuy:     {BatchPickedUp, BatchInTransit, BatchDelivered, BatchFailed},
	identity.RoleAdmin:           {BatchPickedUp, BatchInTransit, BatchDelivered, BatchFailed, BatchCancelled},
}

// ParseBatchStatus validates a batch status string
func ParseBatchStatus(s string) (BatchStatus, error) {
	st := BatchStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := batchTable[st]; !ok {
		return "", shared.NewValidationError("Unknown batch status: %q", s)
	}
	return st, nil
}

// IsTerminal reports whether no further transitions are possible
func (s BatchStatus) IsTerminal() bool {
	return len(batchTable[s]) == 0
}

// CanTransitionTo checks the role-independent table
func (s BatchStatus) CanTransitionTo(to BatchStatus) bool {
	for _, next := range batchTable[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckBatchTransition applies the role allow-list and then the table
func CheckBatchTransition(role identity.Role, from, to BatchStatus) error {
	if _, ok := batchTable[to]; !ok {
		return shared.NewValidationError("Unknown batch status: %q", to)
	}
	allowed := false
	for _, s := range batchRoleTargets[role] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return ordering.NewRoleTransitionError(AggregateTypeBatch, role, string(from), string(to))
	}
	if !from.CanTransitionTo(to) {
		next := make([]string, 0, len(batchTable[from]))
		for _, s := range batchTable[from] {
			next = append(next, string(s))
		}
		return ordering.NewTableTransitionError(AggregateTypeBatch, role, string(from), string(to), next)
	}
	return nil
}

// Batch is a delivery run carrying one order. BatchNumber is the public
// tracking number.
type Batch struct {
	shared.BaseAggregateRoot
	BatchNumber     string
	OrderID         uuid.UUID
	RestaurantID    uuid.UUID
	DeliveryAgentID *uuid.UUID
	Status          BatchStatus
	Notes           string
	AssignedAt      *time.Time
	PickedUpAt      *time.Time
	InTransitAt     *time.Time
	DeliveredAt     *time.Time
	FailedAt        *time.Time
	CancelledAt     *time.Time
}

// NewBatch creates a batch for an order. An already-claimed order yields an
// assigned batch.
func NewBatch(order *ordering.Order, notes string) (*Batch, error) {
	if order.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot create a batch for an order in status %s", order.Status))
	}
	if order.BatchNumber != "" {
		return nil, shared.NewConflictError("Order already has a batch")
	}
	b := &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           order.ID,
		RestaurantID:      order.RestaurantID,
		Status:            BatchCreated,
		Notes:             strings.TrimSpace(notes),
	}
	b.BatchNumber = GenerateBatchNumber(b.CreatedAt, b.ID)
	if order.DeliveryAgentID != nil {
		b.assign(*order.DeliveryAgentID, b.CreatedAt)
	}
	return b, nil
}

// GenerateBatchNumber builds a FOT-YYYYMMDD-XXXXXX tracking number
func GenerateBatchNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6])
	return fmt.Sprintf("FOT-%s-%s", at.UTC().Format("20060102"), suffix)
}

// Assign hands the batch to a delivery agent
func (b *Batch) Assign(agentID uuid.UUID, at time.Time) error {
	if b.Status != BatchCreated {
		return ordering.NewTableTransitionError(AggregateTypeBatch, identity.RoleDeliveryGuy,
			string(b.Status), string(BatchAssigned), nil)
	}
	b.assign(agentID, at)
	return nil
}

func (b *Batch) assign(agentID uuid.UUID, at time.Time) {
	b.DeliveryAgentID = &agentID
	b.Status = BatchAssigned
	b.stamp(BatchAssigned, at)
	b.UpdatedAt = at
}

// TransitionTo applies a role-checked status change
func (b *Batch) TransitionTo(actor identity.Actor, to BatchStatus, at time.Time) error {
	from := b.Status
	if err := CheckBatchTransition(actor.Role, from, to); err != nil {
		return err
	}
	b.Status = to
	b.stamp(to, at)
	b.UpdatedAt = at
	b.Record(NewBatchStatusChangedEvent(b, from, to, actor))
	return nil
}

// stamp sets the timestamp for status once
func (b *Batch) stamp(status BatchStatus, at time.Time) {
	var field **time.Time
	switch status {
	case BatchAssigned:
		field = &b.AssignedAt
	case BatchPickedUp:
		field = &b.PickedUpAt
	case BatchInTransit:
		field = &b.InTransitAt
	case BatchDelivered:
		field = &b.DeliveredAt
	case BatchFailed:
		field = &b.FailedAt
	case BatchCancelled:
		field = &b.CancelledAt
	default:
		return
	}
	if *field == nil {
		t := at
		*field = &t
	}
}

// CanManage reports whether actor may change the batch. Delivery agents
// manage only their own batches; owners only their restaurant's.
func (b *Batch) CanManage(actor identity.Actor) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleRestaurantOwner:
		return actor.OwnsRestaurant(b.RestaurantID)
	case identity.RoleDeliveryGuy:
		return b.DeliveryAgentID != nil && *b.DeliveryAgentID == actor.UserID
	default:
		return false
	}
}

// OrderStatusFor returns the order status a batch status implies, if any.
// Used to keep the order in step when the agent drives the batch.
func OrderStatusFor(s BatchStatus) (ordering.Status, bool) {
	switch s {
	case BatchPickedUp:
		return ordering.StatusPickedByDelivery, true
	case BatchInTransit:
		return ordering.StatusOutForDelivery, true
	case BatchDelivered:
		return ordering.StatusDelivered, true
	}
	return "", false
}
