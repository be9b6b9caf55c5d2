package ordering

import (
	"fmt"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records how an order was paid. No gateway is involved.
type Payment struct {
	shared.BaseEntity
	OrderID        uuid.UUID
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Method         PaymentMethod
	Status         PaymentStatus
	TransactionRef string
}

// NewPayment creates a pending payment for the order total
func NewPayment(order *Order) (*Payment, error) {
	if !order.TotalAmount.IsPositive() {
		return nil, shared.NewValidationError("Payment amount must be positive")
	}
	p := &Payment{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    order.ID,
		UserID:     order.UserID,
		Amount:     order.TotalAmount,
		Method:     order.PaymentMethod,
		Status:     PaymentPending,
	}
	return p, nil
}

// Complete marks the payment captured and assigns a transaction reference
func (p *Payment) Complete(at time.Time) error {
	if p.Status != PaymentPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete payment in status %s", p.Status))
	}
	p.Status = PaymentCompleted
	p.TransactionRef = fmt.Sprintf("PAY-%d-%s", at.UnixMilli(), strings.ToUpper(p.ID.String()[:8]))
	p.UpdatedAt = at
	return nil
}

// Refund reverses a completed payment. Refunding a non-completed payment is a no-op.
func (p *Payment) Refund(at time.Time) bool {
	if p.Status != PaymentCompleted {
		return false
	}
	p.Status = PaymentRefunded
	p.UpdatedAt = at
	return true
}
