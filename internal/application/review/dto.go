package review

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/review"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateReviewRequest is the review submission body
type CreateReviewRequest struct {
	OrderID           uuid.UUID `json:"orderId" binding:"required"`
	RestaurantRating  int       `json:"restaurantRating" binding:"required,min=1,max=5"`
	RestaurantComment string    `json:"restaurantComment" binding:"omitempty,max=1000"`
	DeliveryRating    *int      `json:"deliveryRating" binding:"omitempty,min=1,max=5"`
	DeliveryComment   string    `json:"deliveryComment" binding:"omitempty,max=1000"`
}

// ListReviewsQuery holds review listing parameters
type ListReviewsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RatingResponse is one rating sub-object
type RatingResponse struct {
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

// ReviewResponse is the API representation of a review
type ReviewResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"orderId"`
	UserID           uuid.UUID       `json:"userId"`
	RestaurantID     uuid.UUID       `json:"restaurantId"`
	DeliveryAgentID  *uuid.UUID      `json:"deliveryAgentId,omitempty"`
	RestaurantReview RatingResponse  `json:"restaurantReview"`
	DeliveryReview   *RatingResponse `json:"deliveryReview,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// RestaurantRating is the recomputed aggregate after a change
type RestaurantRating struct {
	RestaurantID  uuid.UUID       `json:"restaurantId"`
	AverageRating decimal.Decimal `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
}

// CreateReviewResult is returned by a successful submission
type CreateReviewResult struct {
	Review     ReviewResponse   `json:"review"`
	Restaurant RestaurantRating `json:"restaurant"`
}

// ToReviewResponse converts a domain review
func ToReviewResponse(r *review.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:              r.ID,
		OrderID:         r.OrderID,
		UserID:          r.UserID,
		RestaurantID:    r.RestaurantID,
		DeliveryAgentID: r.DeliveryAgentID,
		RestaurantReview: RatingResponse{
			Rating:     r.RestaurantReview.Rating,
			Comment:    r.RestaurantReview.Comment,
			ReviewedAt: r.RestaurantReview.ReviewedAt,
		},
		CreatedAt: r.CreatedAt,
	}
	if r.DeliveryReview != nil {
		resp.DeliveryReview = &RatingResponse{
			Rating:     r.DeliveryReview.Rating,
			Comment:    r.DeliveryReview.Comment,
			ReviewedAt: r.DeliveryReview.ReviewedAt,
		}
	}
	return resp
}
