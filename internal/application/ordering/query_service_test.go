package ordering

import (
	"context"
	"testing"

	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQueryService_GetOrder(t *testing.T) {
	ctx := context.Background()
	mocks, _ := newRepoMocks()
	svc := NewQueryService(mocks.orders, mocks.payments)

	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Upma", 70, 10)
	customer := customerActor()
	order := newConfirmedOrder(t, customer.UserID, restaurant.ID, item)
	mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	t.Run("owner of the order", func(t *testing.T) {
		resp, err := svc.GetOrder(ctx, customer, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderNumber, resp.OrderNumber)
		assert.Len(t, resp.Items, 1)
	})

	t.Run("restaurant owner", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, ownerActor(restaurant.ID), order.ID)
		require.NoError(t, err)
	})

	t.Run("admin bypasses ownership", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, adminActor(), order.ID)
		require.NoError(t, err)
	})

	t.Run("another customer sees not found", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, customerActor(), order.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("any agent sees an unassigned claimable order", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, agentActor(), order.ID)
		require.NoError(t, err)
	})
}

func TestQueryService_GetOrder_AgentVisibilityFollowsClaimability(t *testing.T) {
	ctx := context.Background()
	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Pongal", 80, 10)

	for _, tt := range []struct {
		status  ordering.Status
		visible bool
	}{
		{ordering.StatusPending, false},
		{ordering.StatusConfirmed, true},
		{ordering.StatusPreparing, true},
		{ordering.StatusReady, true},
		{ordering.StatusDelivered, false},
		{ordering.StatusCancelled, false},
	} {
		t.Run(string(tt.status), func(t *testing.T) {
			mocks, _ := newRepoMocks()
			svc := NewQueryService(mocks.orders, mocks.payments)
			order := newConfirmedOrder(t, uuid.New(), restaurant.ID, item)
			order.Status = tt.status
			mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

			_, err := svc.GetOrder(ctx, agentActor(), order.ID)

			if tt.visible {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrNotFound)
			}
		})
	}
}

func TestQueryService_ListOrders_ScopesByRole(t *testing.T) {
	ctx := context.Background()
	restaurantID := uuid.New()

	t.Run("customer sees own orders", func(t *testing.T) {
		mocks, _ := newRepoMocks()
		svc := NewQueryService(mocks.orders, mocks.payments)
		customer := customerActor()
		mocks.orders.On("FindAll", mock.Anything, mock.MatchedBy(func(f ordering.OrderFilter) bool {
			return f.UserID != nil && *f.UserID == customer.UserID && f.RestaurantID == nil && f.DeliveryAgentID == nil
		})).Return([]*ordering.Order{}, int64(0), nil)

		page, err := svc.ListOrders(ctx, customer, ListOrdersQuery{})

		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		mocks.orders.AssertExpectations(t)
	})

	t.Run("owner sees restaurant orders", func(t *testing.T) {
		mocks, _ := newRepoMocks()
		svc := NewQueryService(mocks.orders, mocks.payments)
		mocks.orders.On("FindAll", mock.Anything, mock.MatchedBy(func(f ordering.OrderFilter) bool {
			return f.RestaurantID != nil && *f.RestaurantID == restaurantID && f.UserID == nil
		})).Return([]*ordering.Order{}, int64(0), nil)

		_, err := svc.ListOrders(ctx, ownerActor(restaurantID), ListOrdersQuery{Status: "ready"})

		require.NoError(t, err)
		mocks.orders.AssertExpectations(t)
	})

	t.Run("owner without restaurant gets an empty page", func(t *testing.T) {
		mocks, _ := newRepoMocks()
		svc := NewQueryService(mocks.orders, mocks.payments)
		owner := ownerActor(restaurantID)
		owner.RestaurantID = nil

		page, err := svc.ListOrders(ctx, owner, ListOrdersQuery{})

		require.NoError(t, err)
		assert.Empty(t, page.Items)
		mocks.orders.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	})

	t.Run("agent sees assigned orders", func(t *testing.T) {
		mocks, _ := newRepoMocks()
		svc := NewQueryService(mocks.orders, mocks.payments)
		agent := agentActor()
		mocks.orders.On("FindAll", mock.Anything, mock.MatchedBy(func(f ordering.OrderFilter) bool {
			return f.DeliveryAgentID != nil && *f.DeliveryAgentID == agent.UserID
		})).Return([]*ordering.Order{}, int64(0), nil)

		_, err := svc.ListOrders(ctx, agent, ListOrdersQuery{})

		require.NoError(t, err)
		mocks.orders.AssertExpectations(t)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		mocks, _ := newRepoMocks()
		svc := NewQueryService(mocks.orders, mocks.payments)

		_, err := svc.ListOrders(ctx, adminActor(), ListOrdersQuery{Status: "lost"})

		require.Error(t, err)
	})
}

func TestQueryService_ListClaimable(t *testing.T) {
	ctx := context.Background()
	mocks, _ := newRepoMocks()
	svc := NewQueryService(mocks.orders, mocks.payments)
	mocks.orders.On("ListClaimable", mock.Anything, mock.Anything).Return([]*ordering.Order{}, int64(0), nil)

	_, err := svc.ListClaimable(ctx, agentActor(), shared.Filter{})
	require.NoError(t, err)

	_, err = svc.ListClaimable(ctx, customerActor(), shared.Filter{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestQueryService_GetPayment(t *testing.T) {
	ctx := context.Background()
	mocks, _ := newRepoMocks()
	svc := NewQueryService(mocks.orders, mocks.payments)

	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Lassi", 80, 10)
	customer := customerActor()
	order := newConfirmedOrder(t, customer.UserID, restaurant.ID, item)
	payment, err := ordering.NewPayment(order)
	require.NoError(t, err)
	require.NoError(t, payment.Complete(order.CreatedAt))

	mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mocks.payments.On("FindByOrderID", mock.Anything, order.ID).Return(payment, nil)

	resp, err := svc.GetPayment(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.NotEmpty(t, resp.TransactionRef)

	_, err = svc.GetPayment(ctx, customerActor(), order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
