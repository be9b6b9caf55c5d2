package review

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RatingSummary is the aggregate over a restaurant's reviews
type RatingSummary struct {
	Average decimal.Decimal
	Count   int
}

// ReviewRepository persists reviews
type ReviewRepository interface {
	// Create returns shared.ErrAlreadyExists when the order already has a review
	Create(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter shared.Filter) ([]*Review, int64, error)
	SummarizeRestaurant(ctx context.Context, restaurantID uuid.UUID) (RatingSummary, error)
}
