package models

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/review"
	"github.com/google/uuid"
)

// ReviewModel is the persistence model for Review. The unique index on
// order_id enforces one review per order.
type ReviewModel struct {
	Record
	OrderID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	UserID               uuid.UUID  `gorm:"type:uuid;not null;index"`
	RestaurantID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	DeliveryAgentID      *uuid.UUID `gorm:"type:uuid;index"`
	RestaurantRating     int        `gorm:"not null;check:chk_reviews_restaurant_rating,restaurant_rating BETWEEN 1 AND 5"`
	RestaurantComment    string     `gorm:"type:text"`
	RestaurantReviewedAt time.Time  `gorm:"not null"`
	DeliveryRating       *int
	DeliveryComment      string `gorm:"type:text"`
	DeliveryReviewedAt   *time.Time
}

// TableName returns the table name for GORM
func (ReviewModel) TableName() string {
	return "reviews"
}

// ToDomain converts the persistence model to a domain Review
func (m *ReviewModel) ToDomain() *review.Review {
	r := &review.Review{
		BaseEntity:      m.entity(),
		OrderID:         m.OrderID,
		UserID:          m.UserID,
		RestaurantID:    m.RestaurantID,
		DeliveryAgentID: m.DeliveryAgentID,
		RestaurantReview: review.Rating{
			Rating:     m.RestaurantRating,
			Comment:    m.RestaurantComment,
			ReviewedAt: m.RestaurantReviewedAt,
		},
	}
	if m.DeliveryRating != nil {
		d := review.Rating{Rating: *m.DeliveryRating, Comment: m.DeliveryComment}
		if m.DeliveryReviewedAt != nil {
			d.ReviewedAt = *m.DeliveryReviewedAt
		}
		r.DeliveryReview = &d
	}
	return r
}

// ReviewModelFromDomain creates a persistence model from a domain Review
func ReviewModelFromDomain(r *review.Review) *ReviewModel {
	m := &ReviewModel{
		OrderID:              r.OrderID,
		UserID:               r.UserID,
		RestaurantID:         r.RestaurantID,
		DeliveryAgentID:      r.DeliveryAgentID,
		RestaurantRating:     r.RestaurantReview.Rating,
		RestaurantComment:    r.RestaurantReview.Comment,
		RestaurantReviewedAt: r.RestaurantReview.ReviewedAt,
	}
	if r.DeliveryReview != nil {
		rating := r.DeliveryReview.Rating
		at := r.DeliveryReview.ReviewedAt
		m.DeliveryRating = &rating
		m.DeliveryComment = r.DeliveryReview.Comment
		m.DeliveryReviewedAt = &at
	}
	m.Record = recordFrom(r.BaseEntity)
	return m
}
