package ordering

import (
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderClaimed       = "OrderClaimed"
)

// OrderPlacedEvent is raised when an order has been created
type OrderPlacedEvent struct {
	shared.EventMeta
	OrderNumber  string          `json:"order_number"`
	UserID       uuid.UUID       `json:"user_id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemCount    int             `json:"item_count"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		EventMeta: shared.NewEventMeta(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		RestaurantID:    o.RestaurantID,
		TotalAmount:     o.TotalAmount,
		ItemCount:       len(o.Items),
	}
}

// OrderStatusChangedEvent is raised on every accepted status change
type OrderStatusChangedEvent struct {
	shared.EventMeta
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	FromStatus   Status        `json:"from_status"`
	ToStatus     Status        `json:"to_status"`
	ActorID      uuid.UUID     `json:"actor_id"`
	ActorRole    identity.Role `json:"actor_role"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from, to Status, actor identity.Actor) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		EventMeta: shared.NewEventMeta(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		RestaurantID:    o.RestaurantID,
		FromStatus:      from,
		ToStatus:        to,
		ActorID:         actor.UserID,
		ActorRole:       actor.Role,
	}
}

// OrderClaimedEvent is raised when a delivery agent claims an order
type OrderClaimedEvent struct {
	shared.EventMeta
	AgentID uuid.UUID `json:"agent_id"`
}

// NewOrderClaimedEvent creates an OrderClaimedEvent
func NewOrderClaimedEvent(orderID, agentID uuid.UUID) *OrderClaimedEvent {
	return &OrderClaimedEvent{
		EventMeta: shared.NewEventMeta(EventTypeOrderClaimed, AggregateTypeOrder, orderID),
		AgentID:         agentID,
	}
}
