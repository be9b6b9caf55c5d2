package ordering

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceOrderItem is one requested line. UnitPrice is optional; when sent it
// must equal the current menu price.
type PlaceOrderItem struct {
	MenuItemID uuid.UUID        `json:"menuItemId" binding:"required"`
	Quantity   int              `json:"quantity" binding:"required,min=1,max=100"`
	UnitPrice  *decimal.Decimal `json:"unitPrice,omitempty"`
}

// PlaceOrderRequest is the order placement body
type PlaceOrderRequest struct {
	RestaurantID      uuid.UUID        `json:"restaurantId" binding:"required"`
	Items             []PlaceOrderItem `json:"items" binding:"required,min=1,dive"`
	PaymentMethod     string           `json:"paymentMethod" binding:"required,oneof=card upi cash wallet netbanking"`
	DeliveryAddressID *uuid.UUID       `json:"deliveryAddressId,omitempty"`
	Notes             string           `json:"notes,omitempty" binding:"max=500"`
}

// PlaceOrderCommand is PlaceOrderRequest plus the transport-level options
type PlaceOrderCommand struct {
	PlaceOrderRequest
	IdempotencyKey string
	InjectFailure  bool
}

// UpdateStatusRequest is the status change body
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrdersQuery holds order listing parameters
type ListOrdersQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at total_amount status order_number"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search" binding:"omitempty,max=40"`
	Status   string `form:"status"`
}

// LineItemResponse is one order line
type LineItemResponse struct {
	MenuItemID uuid.UUID       `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// OrderResponse is the API representation of an order
type OrderResponse struct {
	ID                uuid.UUID            `json:"id"`
	OrderNumber       string               `json:"orderNumber"`
	UserID            uuid.UUID            `json:"userId"`
	RestaurantID      uuid.UUID            `json:"restaurantId"`
	Items             []LineItemResponse   `json:"items"`
	TotalAmount       decimal.Decimal      `json:"totalAmount"`
	Status            string               `json:"status"`
	PaymentStatus     string               `json:"paymentStatus"`
	PaymentMethod     string               `json:"paymentMethod"`
	Timeline          map[string]time.Time `json:"timeline"`
	BatchNumber       string               `json:"batchNumber,omitempty"`
	DeliveryAgentID   *uuid.UUID           `json:"deliveryAgentId,omitempty"`
	DeliveryAddressID *uuid.UUID           `json:"deliveryAddressId,omitempty"`
	Notes             string               `json:"notes,omitempty"`
	Version           int                  `json:"version"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// PaymentResponse is the API representation of a payment
type PaymentResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"orderId"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	Status         string          `json:"status"`
	TransactionRef string          `json:"transactionRef,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PlaceOrderResult is returned by a successful placement
type PlaceOrderResult struct {
	Order   OrderResponse   `json:"order"`
	Payment PaymentResponse `json:"payment"`
}

// StatusChangeResponse reports the outcome of a status change
type StatusChangeResponse struct {
	ID            uuid.UUID            `json:"id"`
	OrderNumber   string               `json:"orderNumber"`
	PreviousState string               `json:"previousStatus"`
	Status        string               `json:"status"`
	PaymentStatus string               `json:"paymentStatus"`
	Timeline      map[string]time.Time `json:"timeline"`
	Version       int                  `json:"version"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *ordering.Order) OrderResponse {
	items := make([]LineItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = LineItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Subtotal:   it.Subtotal,
		}
	}
	return OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		RestaurantID:      o.RestaurantID,
		Items:             items,
		TotalAmount:       o.TotalAmount,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		PaymentMethod:     string(o.PaymentMethod),
		Timeline:          copyTimeline(o.Timeline),
		BatchNumber:       o.BatchNumber,
		DeliveryAgentID:   o.DeliveryAgentID,
		DeliveryAddressID: o.DeliveryAddressID,
		Notes:             o.Notes,
		Version:           o.Version,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of domain orders
func ToOrderResponses(orders []*ordering.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return out
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *ordering.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Amount:         p.Amount,
		Method:         string(p.Method),
		Status:         string(p.Status),
		TransactionRef: p.TransactionRef,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func copyTimeline(tl ordering.Timeline) map[string]time.Time {
	out := make(map[string]time.Time, len(tl))
	for k, v := range tl {
		out[k] = v
	}
	return out
}
