package catalog

import (
	"strings"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Restaurant is a venue that sells menu items
type Restaurant struct {
	shared.BaseAggregateRoot
	OwnerID       uuid.UUID
	Name          string
	SearchKey     string
	Address       string
	Cuisine       string
	Phone         string
	IsOpen        bool
	AverageRating decimal.Decimal
	ReviewCount   int
}

// NewRestaurant creates an open restaurant owned by ownerID
func NewRestaurant(ownerID uuid.UUID, name, address, cuisine string) (*Restaurant, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("Restaurant owner is required")
	}
	r := &Restaurant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		IsOpen:            true,
		AverageRating:     decimal.Zero,
	}
	if err := r.UpdateDetails(name, address, cuisine, ""); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateDetails replaces the descriptive fields
func (r *Restaurant) UpdateDetails(name, address, cuisine, phone string) error {
	name = CleanName(name)
	if name == "" {
		return shared.NewValidationError("Restaurant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Restaurant name cannot exceed 200 characters")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return shared.NewValidationError("Restaurant address cannot be empty")
	}
	r.Name = name
	r.SearchKey = SearchKey(name)
	r.Address = address
	r.Cuisine = SearchKey(cuisine)
	r.Phone = strings.TrimSpace(phone)
	r.Touch()
	return nil
}

// SetOpen opens or closes the restaurant for new orders
func (r *Restaurant) SetOpen(open bool) {
	r.IsOpen = open
	r.Touch()
}

// ApplyRatingSummary stores a freshly computed rating aggregate
func (r *Restaurant) ApplyRatingSummary(average decimal.Decimal, count int) {
	r.AverageRating = average.Round(2)
	r.ReviewCount = count
	r.Touch()
}
