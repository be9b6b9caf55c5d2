package catalog

import (
	"strings"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a dish sold by one restaurant. Stock never goes negative.
type MenuItem struct {
	shared.BaseAggregateRoot
	RestaurantID uuid.UUID
	Name         string
	Description  string
	Category     string
	Price        decimal.Decimal
	Stock        int
	IsAvailable  bool
	ImageKey     string
}

// NewMenuItem creates an available menu item
func NewMenuItem(restaurantID uuid.UUID, name string, price decimal.Decimal, stock int) (*MenuItem, error) {
	if restaurantID == uuid.Nil {
		return nil, shared.NewValidationError("Restaurant is required")
	}
	m := &MenuItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RestaurantID:      restaurantID,
		IsAvailable:       true,
	}
	if err := m.Update(name, "", "", price); err != nil {
		return nil, err
	}
	if err := m.SetStock(stock); err != nil {
		return nil, err
	}
	return m, nil
}

// Update replaces the descriptive fields and price
func (m *MenuItem) Update(name, description, category string, price decimal.Decimal) error {
	name = CleanName(name)
	if name == "" {
		return shared.NewValidationError("Menu item name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Menu item name cannot exceed 200 characters")
	}
	if !price.IsPositive() {
		return shared.NewValidationError("Menu item price must be positive")
	}
	m.Name = name
	m.Description = strings.TrimSpace(description)
	m.Category = SearchKey(category)
	m.Price = price.Round(2)
	m.Touch()
	return nil
}

// SetStock sets the absolute stock count
func (m *MenuItem) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewValidationError("Stock cannot be negative")
	}
	m.Stock = stock
	m.Touch()
	return nil
}

// SetAvailable toggles whether the item can be ordered
func (m *MenuItem) SetAvailable(available bool) {
	m.IsAvailable = available
	m.Touch()
}

// SetImageKey records the object-storage key of the item's photo
func (m *MenuItem) SetImageKey(key string) {
	m.ImageKey = key
	m.Touch()
}

// CanFulfil reports whether quantity units can be sold right now
func (m *MenuItem) CanFulfil(quantity int) bool {
	return m.IsAvailable && quantity > 0 && m.Stock >= quantity
}
