package review

import (
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxCommentLength bounds review comments
const MaxCommentLength = 1000

// Rating is a 1..5 score with an optional comment
type Rating struct {
	Rating     int
	Comment    string
	ReviewedAt time.Time
}

func newRating(field string, score int, comment string, at time.Time) (Rating, error) {
	if score < 1 || score > 5 {
		return Rating{}, shared.NewValidationError("%s must be between 1 and 5", field)
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > MaxCommentLength {
		return Rating{}, shared.NewValidationError("%s comment must be at most %d characters", field, MaxCommentLength)
	}
	return Rating{Rating: score, Comment: comment, ReviewedAt: at}, nil
}

// Review is a customer's feedback on one delivered order
type Review struct {
	shared.BaseEntity
	OrderID          uuid.UUID
	UserID           uuid.UUID
	RestaurantID     uuid.UUID
	DeliveryAgentID  *uuid.UUID
	RestaurantReview Rating
	DeliveryReview   *Rating
}

// Input carries the customer-supplied review fields
type Input struct {
	RestaurantRating  int
	RestaurantComment string
	DeliveryRating    *int
	DeliveryComment   string
}

// ErrOrderNotDelivered is returned when reviewing an order before delivery
var ErrOrderNotDelivered = shared.NewDomainError("ORDER_NOT_DELIVERED", "Only delivered orders can be reviewed")

// NewReview validates the input against the order and builds the review
func NewReview(order *ordering.Order, userID uuid.UUID, in Input) (*Review, error) {
	if order.UserID != userID {
		return nil, shared.ErrForbidden
	}
	if order.Status != ordering.StatusDelivered {
		return nil, ErrOrderNotDelivered
	}
	now := shared.Now()
	restaurant, err := newRating("restaurantRating", in.RestaurantRating, in.RestaurantComment, now)
	if err != nil {
		return nil, err
	}
	r := &Review{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          order.ID,
		UserID:           userID,
		RestaurantID:     order.RestaurantID,
		RestaurantReview: restaurant,
	}
	if in.DeliveryRating != nil {
		if order.DeliveryAgentID == nil {
			return nil, shared.NewValidationError("Order had no delivery agent to rate")
		}
		delivery, err := newRating("deliveryRating", *in.DeliveryRating, in.DeliveryComment, now)
		if err != nil {
			return nil, err
		}
		agent := *order.DeliveryAgentID
		r.DeliveryAgentID = &agent
		r.DeliveryReview = &delivery
	}
	return r, nil
}
