package models

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/google/uuid"
)

// BatchModel is the persistence model for the Batch aggregate root.
type BatchModel struct {
	Versioned
	BatchNumber     string     `gorm:"type:varchar(40);not null;uniqueIndex"`
	OrderID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	RestaurantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	DeliveryAgentID *uuid.UUID `gorm:"type:uuid;index"`
	Status          string     `gorm:"type:varchar(16);not null;index"`
	Notes           string     `gorm:"type:text"`
	AssignedAt      *time.Time
	PickedUpAt      *time.Time
	InTransitAt     *time.Time
	DeliveredAt     *time.Time
	FailedAt        *time.Time
	CancelledAt     *time.Time
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "batches"
}

// ToDomain converts the persistence model to a domain Batch
func (m *BatchModel) ToDomain() *delivery.Batch {
	return &delivery.Batch{
		BaseAggregateRoot: m.aggregate(),
		BatchNumber:       m.BatchNumber,
		OrderID:           m.OrderID,
		RestaurantID:      m.RestaurantID,
		DeliveryAgentID:   m.DeliveryAgentID,
		Status:            delivery.BatchStatus(m.Status),
		Notes:             m.Notes,
		AssignedAt:        m.AssignedAt,
		PickedUpAt:        m.PickedUpAt,
		InTransitAt:       m.InTransitAt,
		DeliveredAt:       m.DeliveredAt,
		FailedAt:          m.FailedAt,
		CancelledAt:       m.CancelledAt,
	}
}

// BatchModelFromDomain creates a persistence model from a domain Batch
func BatchModelFromDomain(b *delivery.Batch) *BatchModel {
	m := &BatchModel{
		BatchNumber:     b.BatchNumber,
		OrderID:         b.OrderID,
		RestaurantID:    b.RestaurantID,
		DeliveryAgentID: b.DeliveryAgentID,
		Status:          string(b.Status),
		Notes:           b.Notes,
		AssignedAt:      b.AssignedAt,
		PickedUpAt:      b.PickedUpAt,
		InTransitAt:     b.InTransitAt,
		DeliveredAt:     b.DeliveredAt,
		FailedAt:        b.FailedAt,
		CancelledAt:     b.CancelledAt,
	}
	m.Versioned = versionedFrom(b.BaseAggregateRoot)
	return m
}
