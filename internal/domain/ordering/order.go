package ordering

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type name used in events and audit rows
const AggregateTypeOrder = "order"

// MilestonePlaced is stamped when the order is created
const MilestonePlaced = "placed"

// MaxLineQuantity bounds a single line
const MaxLineQuantity = 100

// LineItem is one menu item on an order. UnitPrice is copied from the menu at
// placement time.
type LineItem struct {
	MenuItemID uuid.UUID       `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Timeline maps a milestone name to when it was first reached
type Timeline map[string]time.Time

// Stamp records milestone at t unless it was already recorded.
// It reports whether a new stamp was written.
func (tl Timeline) Stamp(milestone string, t time.Time) bool {
	if _, ok := tl[milestone]; ok {
		return false
	}
	tl[milestone] = t
	return true
}

// Has reports whether milestone was reached
func (tl Timeline) Has(milestone string) bool {
	_, ok := tl[milestone]
	return ok
}

// Order is the aggregate root for a customer order
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber       string
	UserID            uuid.UUID
	RestaurantID      uuid.UUID
	Items             []LineItem
	TotalAmount       decimal.Decimal
	Status            Status
	PaymentStatus     PaymentStatus
	PaymentMethod     PaymentMethod
	Timeline          Timeline
	BatchNumber       string
	DeliveryAgentID   *uuid.UUID
	DeliveryAddressID *uuid.UUID
	Notes             string
}

// NewOrder creates a pending order and computes line subtotals and the total
func NewOrder(userID, restaurantID uuid.UUID, items []LineItem, method PaymentMethod) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("Order must belong to a user")
	}
	if restaurantID == uuid.Nil {
		return nil, shared.NewValidationError("Order must reference a restaurant")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("Order must contain at least one item")
	}
	if _, err := ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(items))
	lines := make([]LineItem, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		if item.MenuItemID == uuid.Nil {
			return nil, shared.NewValidationError("items[%d]: menu item is required", i)
		}
		if _, dup := seen[item.MenuItemID]; dup {
			return nil, shared.NewValidationError("items[%d]: menu item %s listed twice", i, item.MenuItemID)
		}
		seen[item.MenuItemID] = struct{}{}
		if item.Quantity < 1 || item.Quantity > MaxLineQuantity {
			return nil, shared.NewValidationError("items[%d]: quantity must be between 1 and %d", i, MaxLineQuantity)
		}
		if !item.UnitPrice.IsPositive() {
			return nil, shared.NewValidationError("items[%d]: unit price must be positive", i)
		}
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.Subtotal)
		lines = append(lines, item)
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		RestaurantID:      restaurantID,
		Items:             lines,
		TotalAmount:       total,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		PaymentMethod:     method,
		Timeline:          Timeline{},
	}
	o.OrderNumber = GenerateOrderNumber(o.CreatedAt, o.ID)
	o.Timeline.Stamp(MilestonePlaced, o.CreatedAt)
	o.Record(NewOrderPlacedEvent(o))
	return o, nil
}

// GenerateOrderNumber builds a human readable order number from the creation
// time and the order id
func GenerateOrderNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102"), suffix)
}

// SetDeliveryDetails records the optional address and notes
func (o *Order) SetDeliveryDetails(addressID *uuid.UUID, notes string) error {
	notes = strings.TrimSpace(notes)
	if len(notes) > 500 {
		return shared.NewValidationError("Notes must be at most 500 characters")
	}
	o.DeliveryAddressID = addressID
	o.Notes = notes
	return nil
}

// Confirm completes the placement workflow: payment captured and the order
// moves to confirmed. It is the system path and is not role-checked.
func (o *Order) Confirm(at time.Time) error {
	if !o.Status.CanTransitionTo(StatusConfirmed) {
		return NewTableTransitionError(AggregateTypeOrder, "", string(o.Status), string(StatusConfirmed), nil)
	}
	o.Status = StatusConfirmed
	o.PaymentStatus = PaymentCompleted
	o.Timeline.Stamp(string(StatusConfirmed), at)
	o.UpdatedAt = at
	return nil
}

// TransitionResult describes the side effects of an accepted transition
type TransitionResult struct {
	From          Status
	To            Status
	RestoreStock  bool
	RefundPayment bool
}

// TransitionTo applies a role-checked status change. Callers must check
// ownership with CanAccess first.
func (o *Order) TransitionTo(actor identity.Actor, to Status, at time.Time) (TransitionResult, error) {
	from := o.Status
	if err := CheckTransition(actor.Role, from, to); err != nil {
		return TransitionResult{}, err
	}

	result := TransitionResult{From: from, To: to}
	o.Status = to
	o.Timeline.Stamp(string(to), at)
	o.UpdatedAt = at

	if to == StatusCancelled {
		result.RestoreStock = true
		if o.PaymentStatus == PaymentCompleted {
			o.PaymentStatus = PaymentRefunded
			result.RefundPayment = true
		}
	}

	o.Record(NewOrderStatusChangedEvent(o, from, to, actor))
	return result, nil
}

// AssignAgent records the delivery agent after a successful claim
func (o *Order) AssignAgent(agentID uuid.UUID) error {
	if o.DeliveryAgentID != nil {
		return shared.NewDomainError("ALREADY_CLAIMED", "Order has already been claimed")
	}
	if !o.Status.IsClaimable() {
		return shared.NewDomainError("ALREADY_CLAIMED", fmt.Sprintf("Order in status %s cannot be claimed", o.Status))
	}
	o.DeliveryAgentID = &agentID
	o.Touch()
	return nil
}

// AttachBatch copies the tracking number onto the order
func (o *Order) AttachBatch(batchNumber string) {
	o.BatchNumber = batchNumber
	o.Touch()
}

// SortedItems returns a copy of the line items ordered by menu item id so
// that concurrent writers touch stock rows in the same order
func (o *Order) SortedItems() []LineItem {
	lines := make([]LineItem, len(o.Items))
	copy(lines, o.Items)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].MenuItemID.String() < lines[j].MenuItemID.String()
	})
	return lines
}

// RecomputeTotal sums the line subtotals
func (o *Order) RecomputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
