package models

import (
	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RestaurantModel is the persistence model for the Restaurant aggregate root.
type RestaurantModel struct {
	Versioned
	OwnerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	SearchKey     string          `gorm:"type:varchar(200);not null;index"`
	Address       string          `gorm:"type:varchar(500);not null"`
	Cuisine       string          `gorm:"type:varchar(100);index"`
	Phone         string          `gorm:"type:varchar(20)"`
	IsOpen        bool            `gorm:"not null"`
	AverageRating decimal.Decimal `gorm:"type:decimal(3,2);not null"`
	ReviewCount   int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RestaurantModel) TableName() string {
	return "restaurants"
}

// ToDomain converts the persistence model to a domain Restaurant
func (m *RestaurantModel) ToDomain() *catalog.Restaurant {
	return &catalog.Restaurant{
		BaseAggregateRoot: m.aggregate(),
		OwnerID:           m.OwnerID,
		Name:              m.Name,
		SearchKey:         m.SearchKey,
		Address:           m.Address,
		Cuisine:           m.Cuisine,
		Phone:             m.Phone,
		IsOpen:            m.IsOpen,
		AverageRating:     m.AverageRating,
		ReviewCount:       m.ReviewCount,
	}
}

// RestaurantModelFromDomain creates a persistence model from a domain Restaurant
func RestaurantModelFromDomain(r *catalog.Restaurant) *RestaurantModel {
	m := &RestaurantModel{
		OwnerID:       r.OwnerID,
		Name:          r.Name,
		SearchKey:     r.SearchKey,
		Address:       r.Address,
		Cuisine:       r.Cuisine,
		Phone:         r.Phone,
		IsOpen:        r.IsOpen,
		AverageRating: r.AverageRating,
		ReviewCount:   r.ReviewCount,
	}
	m.Versioned = versionedFrom(r.BaseAggregateRoot)
	return m
}

// MenuItemModel is the persistence model for MenuItem.
// The check constraint backs the guarded stock decrement.
type MenuItemModel struct {
	Versioned
	RestaurantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Description  string          `gorm:"type:text"`
	Category     string          `gorm:"type:varchar(100)"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock        int             `gorm:"not null;check:chk_menu_items_stock_non_negative,stock >= 0"`
	IsAvailable  bool            `gorm:"not null"`
	ImageKey     string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (MenuItemModel) TableName() string {
	return "menu_items"
}

// ToDomain converts the persistence model to a domain MenuItem
func (m *MenuItemModel) ToDomain() *catalog.MenuItem {
	return &catalog.MenuItem{
		BaseAggregateRoot: m.aggregate(),
		RestaurantID:      m.RestaurantID,
		Name:              m.Name,
		Description:       m.Description,
		Category:          m.Category,
		Price:             m.Price,
		Stock:             m.Stock,
		IsAvailable:       m.IsAvailable,
		ImageKey:          m.ImageKey,
	}
}

// MenuItemModelFromDomain creates a persistence model from a domain MenuItem
func MenuItemModelFromDomain(item *catalog.MenuItem) *MenuItemModel {
	m := &MenuItemModel{
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Category:     item.Category,
		Price:        item.Price,
		Stock:        item.Stock,
		IsAvailable:  item.IsAvailable,
		ImageKey:     item.ImageKey,
	}
	m.Versioned = versionedFrom(item.BaseAggregateRoot)
	return m
}
