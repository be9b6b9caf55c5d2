package catalog

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRestaurantRequest is the restaurant creation body.
// OwnerID is only honoured for admins; owners always create for themselves.
type CreateRestaurantRequest struct {
	Name    string     `json:"name" binding:"required,min=1,max=200"`
	Address string     `json:"address" binding:"required,min=1,max=500"`
	Cuisine string     `json:"cuisine" binding:"omitempty,max=50"`
	Phone   string     `json:"phone" binding:"omitempty,max=20,phone"`
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

// UpdateRestaurantRequest is a partial restaurant update
type UpdateRestaurantRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=200"`
	Address *string `json:"address" binding:"omitempty,min=1,max=500"`
	Cuisine *string `json:"cuisine" binding:"omitempty,max=50"`
	Phone   *string `json:"phone" binding:"omitempty,max=20,phone"`
	IsOpen  *bool   `json:"isOpen"`
}

// ListRestaurantsQuery holds restaurant listing parameters
type ListRestaurantsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at name cuisine average_rating review_count"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Cuisine  string `form:"cuisine" binding:"omitempty,max=50"`
	OpenOnly bool   `form:"open_only"`
}

// RestaurantResponse is the API representation of a restaurant
type RestaurantResponse struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"ownerId"`
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	Cuisine       string          `json:"cuisine,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	IsOpen        bool            `json:"isOpen"`
	AverageRating decimal.Decimal `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ToRestaurantResponse converts a domain restaurant
func ToRestaurantResponse(r *catalog.Restaurant) RestaurantResponse {
	return RestaurantResponse{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Name:          r.Name,
		Address:       r.Address,
		Cuisine:       r.Cuisine,
		Phone:         r.Phone,
		IsOpen:        r.IsOpen,
		AverageRating: r.AverageRating,
		ReviewCount:   r.ReviewCount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// CreateMenuItemRequest is the menu item creation body
type CreateMenuItemRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"omitempty,max=1000"`
	Category    string          `json:"category" binding:"omitempty,max=50"`
	Price       decimal.Decimal `json:"price" binding:"required,money"`
	Stock       int             `json:"stock" binding:"min=0"`
	IsAvailable *bool           `json:"isAvailable"`
}

// UpdateMenuItemRequest is a partial menu item update
type UpdateMenuItemRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	Category    *string          `json:"category" binding:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,money"`
	IsAvailable *bool            `json:"isAvailable"`
}

// RestockRequest sets the absolute stock of a menu item
type RestockRequest struct {
	Stock *int `json:"stock" binding:"required,min=0"`
}

// MenuItemResponse is the API representation of a menu item
type MenuItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurantId"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	IsAvailable  bool            `json:"isAvailable"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	ImageExpires *time.Time      `json:"imageUrlExpiresAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ToMenuItemResponse converts a domain menu item without an image URL
func ToMenuItemResponse(m *catalog.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Description:  m.Description,
		Category:     m.Category,
		Price:        m.Price,
		Stock:        m.Stock,
		IsAvailable:  m.IsAvailable,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ImageUploadRequest asks for a presigned upload URL
type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,min=1"`
}

// ImageUploadResponse carries the presigned PUT URL. The client uploads the
// file directly to object storage sending Headers unchanged.
type ImageUploadResponse struct {
	MenuItemID  uuid.UUID         `json:"menuItemId"`
	UploadURL   string            `json:"uploadUrl"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers,omitempty"`
	StorageKey  string            `json:"storageKey"`
	ContentType string            `json:"contentType"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}
