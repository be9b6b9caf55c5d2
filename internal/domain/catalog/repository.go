package catalog

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RestaurantFilter narrows restaurant listings
type RestaurantFilter struct {
	shared.Filter
	Cuisine  string
	OpenOnly bool
}

// RestaurantRepository persists restaurants
type RestaurantRepository interface {
	Create(ctx context.Context, r *Restaurant) error
	Update(ctx context.Context, r *Restaurant) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Restaurant, error)
	FindAll(ctx context.Context, filter RestaurantFilter) ([]*Restaurant, int64, error)
	// UpdateRating writes a precomputed rating aggregate
	UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int) error
}

// MenuItemRepository persists menu items
type MenuItemRepository interface {
	Create(ctx context.Context, m *MenuItem) error
	Update(ctx context.Context, m *MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*MenuItem, error)
	FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*MenuItem, error)
	// DecrementStock removes quantity units only if at least quantity remain.
	// Returns false when the guard fails.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	// IncrementStock returns units to stock
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}
