package review

import (
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveredOrder(t *testing.T) *ordering.Order {
	o, err := ordering.NewOrder(uuid.New(), uuid.New(), []ordering.LineItem{
		{MenuItemID: uuid.New(), Name: "Thali", Quantity: 1, UnitPrice: decimal.NewFromInt(250)},
	}, ordering.PaymentUPI)
	require.NoError(t, err)
	require.NoError(t, o.Confirm(time.Now()))
	agent := uuid.New()
	o.DeliveryAgentID = &agent
	o.Status = ordering.StatusDelivered
	return o
}

func intPtr(v int) *int { return &v }

func TestNewReview(t *testing.T) {
	t.Run("restaurant and delivery ratings", func(t *testing.T) {
		o := deliveredOrder(t)
		r, err := NewReview(o, o.UserID, Input{
			RestaurantRating:  5,
			RestaurantComment: "  great  ",
			DeliveryRating:    intPtr(4),
		})
		require.NoError(t, err)
		assert.Equal(t, o.RestaurantID, r.RestaurantID)
		assert.Equal(t, "great", r.RestaurantReview.Comment)
		require.NotNil(t, r.DeliveryReview)
		assert.Equal(t, 4, r.DeliveryReview.Rating)
		assert.Equal(t, *o.DeliveryAgentID, *r.DeliveryAgentID)
	})

	t.Run("order not delivered", func(t *testing.T) {
		o := deliveredOrder(t)
		o.Status = ordering.StatusOutForDelivery
		_, err := NewReview(o, o.UserID, Input{RestaurantRating: 5})
		assert.ErrorIs(t, err, ErrOrderNotDelivered)
	})

	t.Run("not the customer's order", func(t *testing.T) {
		o := deliveredOrder(t)
		_, err := NewReview(o, uuid.New(), Input{RestaurantRating: 5})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("rating out of range", func(t *testing.T) {
		o := deliveredOrder(t)
		for _, score := range []int{0, 6} {
			_, err := NewReview(o, o.UserID, Input{RestaurantRating: score})
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "VALIDATION_ERROR", de.Code)
		}
		_, err := NewReview(o, o.UserID, Input{RestaurantRating: 3, DeliveryRating: intPtr(9)})
		assert.Error(t, err)
	})
}
