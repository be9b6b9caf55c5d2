package delivery

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/google/uuid"
)

// CreateBatchRequest is the batch creation body
type CreateBatchRequest struct {
	OrderID uuid.UUID `json:"orderId" binding:"required"`
	Notes   string    `json:"notes" binding:"omitempty,max=500"`
}

// UpdateBatchStatusRequest is the batch status change body
type UpdateBatchStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListBatchesQuery holds batch listing parameters
type ListBatchesQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at status"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Milestones are the per-status timestamps of a batch
type Milestones struct {
	CreatedAt   time.Time  `json:"createdAt"`
	AssignedAt  *time.Time `json:"assignedAt,omitempty"`
	PickedUpAt  *time.Time `json:"pickedUpAt,omitempty"`
	InTransitAt *time.Time `json:"inTransitAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// BatchResponse is the API representation of a batch
type BatchResponse struct {
	ID              uuid.UUID  `json:"id"`
	BatchNumber     string     `json:"batchNumber"`
	OrderID         uuid.UUID  `json:"orderId"`
	RestaurantID    uuid.UUID  `json:"restaurantId"`
	DeliveryAgentID *uuid.UUID `json:"deliveryAgentId,omitempty"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	Milestones      Milestones `json:"milestones"`
	Version         int        `json:"version"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TrackingResponse is the public view of a batch: status and stamps only
type TrackingResponse struct {
	BatchNumber string     `json:"batchNumber"`
	Status      string     `json:"status"`
	Milestones  Milestones `json:"milestones"`
}

// BatchStatusChangeResponse reports a batch transition and the order status
// it implied
type BatchStatusChangeResponse struct {
	Batch          BatchResponse `json:"batch"`
	PreviousStatus string        `json:"previousStatus"`
	OrderStatus    string        `json:"orderStatus,omitempty"`
}

func milestonesOf(b *delivery.Batch) Milestones {
	return Milestones{
		CreatedAt:   b.CreatedAt,
		AssignedAt:  b.AssignedAt,
		PickedUpAt:  b.PickedUpAt,
		InTransitAt: b.InTransitAt,
		DeliveredAt: b.DeliveredAt,
		FailedAt:    b.FailedAt,
		CancelledAt: b.CancelledAt,
	}
}

// ToBatchResponse converts a domain batch
func ToBatchResponse(b *delivery.Batch) BatchResponse {
	return BatchResponse{
		ID:              b.ID,
		BatchNumber:     b.BatchNumber,
		OrderID:         b.OrderID,
		RestaurantID:    b.RestaurantID,
		DeliveryAgentID: b.DeliveryAgentID,
		Status:          string(b.Status),
		Notes:           b.Notes,
		Milestones:      milestonesOf(b),
		Version:         b.Version,
		UpdatedAt:       b.UpdatedAt,
	}
}

// ToTrackingResponse converts a domain batch to its public view
func ToTrackingResponse(b *delivery.Batch) TrackingResponse {
	return TrackingResponse{
		BatchNumber: b.BatchNumber,
		Status:      string(b.Status),
		Milestones:  milestonesOf(b),
	}
}
