package ordering

import (
	"context"
	"errors"
	"testing"

	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusService_UpdateStatus_OwnerAdvancesOrder(t *testing.T) {
	ctx := context.Background()
	mocks, scope := newRepoMocks()
	publisher := &recordingPublisher{}
	svc := NewStatusService(scope, nil)
	svc.SetEventPublisher(publisher)

	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Idli", 60, 10)
	order := newConfirmedOrder(t, uuid.New(), restaurant.ID, item)
	version := order.Version

	mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mocks.orders.On("Update", mock.Anything, order).Return(nil)

	resp, err := svc.UpdateStatus(ctx, ownerActor(restaurant.ID), order.ID, UpdateStatusRequest{Status: "preparing"})

	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.PreviousState)
	assert.Equal(t, "preparing", resp.Status)
	assert.Contains(t, resp.Timeline, "preparing")
	assert.Equal(t, version+1, resp.Version)
	assert.Equal(t, []string{ordering.EventTypeOrderStatusChanged}, publisher.types())
	mocks.menu.AssertNotCalled(t, "IncrementStock", mock.Anything, mock.Anything, mock.Anything)
	mocks.assertExpectations(t)
}

func TestStatusService_UpdateStatus_Rejections(t *testing.T) {
	ctx := context.Background()
	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Vada", 50, 10)
	customerID := uuid.New()

	t.Run("customer cannot move an order forward", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		order := newConfirmedOrder(t, customerID, restaurant.ID, item)
		customer := customerActor()
		customer.UserID = customerID
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.UpdateStatus(ctx, customer, order.ID, UpdateStatusRequest{Status: "delivered"})

		var fte *ordering.ForbiddenTransitionError
		require.ErrorAs(t, err, &fte)
		assert.Equal(t, ordering.CodeForbiddenTransition, fte.Code)
		assert.Equal(t, ordering.StatusConfirmed, order.Status)
		mocks.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("customer cannot cancel after confirmation", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		order := newConfirmedOrder(t, customerID, restaurant.ID, item)
		customer := customerActor()
		customer.UserID = customerID
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.UpdateStatus(ctx, customer, order.ID, UpdateStatusRequest{Status: "cancelled"})

		var fte *ordering.ForbiddenTransitionError
		require.ErrorAs(t, err, &fte)
		assert.True(t, fte.RoleDenied())
	})

	t.Run("owner cannot skip the state table", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		order := newConfirmedOrder(t, customerID, restaurant.ID, item)
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.UpdateStatus(ctx, ownerActor(restaurant.ID), order.ID, UpdateStatusRequest{Status: "ready"})

		var fte *ordering.ForbiddenTransitionError
		require.ErrorAs(t, err, &fte)
		assert.Equal(t, ordering.CodeInvalidTransition, fte.Code)
		assert.Contains(t, fte.Message, "preparing")
	})

	t.Run("other restaurant's owner is forbidden", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		order := newConfirmedOrder(t, customerID, restaurant.ID, item)
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.UpdateStatus(ctx, ownerActor(uuid.New()), order.ID, UpdateStatusRequest{Status: "preparing"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("delivery agent must claim first", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		order := newConfirmedOrder(t, customerID, restaurant.ID, item)
		order.Status = ordering.StatusReady
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.UpdateStatus(ctx, agentActor(), order.ID, UpdateStatusRequest{Status: "picked_by_delivery"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("delivery agent cannot set preparing on an unclaimed order", func(t *testing.T) {
		for _, from := range []ordering.Status{ordering.StatusPending, ordering.StatusConfirmed, ordering.StatusReady} {
			mocks, scope := newRepoMocks()
			svc := NewStatusService(scope, nil)
			order := newConfirmedOrder(t, customerID, restaurant.ID, item)
			order.Status = from
			mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

			_, err := svc.UpdateStatus(ctx, agentActor(), order.ID, UpdateStatusRequest{Status: "preparing"})

			var fte *ordering.ForbiddenTransitionError
			require.ErrorAs(t, err, &fte, "from %s", from)
			assert.Equal(t, ordering.CodeForbiddenTransition, fte.Code)
			assert.True(t, fte.RoleDenied())
			mocks.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		}
	})

	t.Run("customer cancelling another customer's pending order is forbidden", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		order := newConfirmedOrder(t, customerID, restaurant.ID, item)
		order.Status = ordering.StatusPending
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.UpdateStatus(ctx, customerActor(), order.ID, UpdateStatusRequest{Status: "cancelled"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		var fte *ordering.ForbiddenTransitionError
		assert.False(t, errors.As(err, &fte))
	})

	t.Run("unknown status", func(t *testing.T) {
		_, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)

		_, err := svc.UpdateStatus(ctx, adminActor(), uuid.New(), UpdateStatusRequest{Status: "teleported"})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "VALIDATION_ERROR", de.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		id := uuid.New()
		mocks.orders.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.UpdateStatus(ctx, adminActor(), id, UpdateStatusRequest{Status: "preparing"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.EqualError(t, err, "Order not found")
	})

	t.Run("lost update reports concurrency conflict", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewStatusService(scope, nil)
		order := newConfirmedOrder(t, customerID, restaurant.ID, item)
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		mocks.orders.On("Update", mock.Anything, order).Return(shared.ErrConcurrencyConflict)

		_, err := svc.UpdateStatus(ctx, adminActor(), order.ID, UpdateStatusRequest{Status: "preparing"})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestStatusService_UpdateStatus_CancelRestoresStockAndRefunds(t *testing.T) {
	ctx := context.Background()
	mocks, scope := newRepoMocks()
	cache := &recordingInvalidator{}
	svc := NewStatusService(scope, nil)
	svc.SetMenuInvalidator(cache)

	restaurant := newTestRestaurant(t)
	a := newTestMenuItem(t, restaurant.ID, "Samosa", 30, 10)
	b := newTestMenuItem(t, restaurant.ID, "Chai", 20, 10)
	order := newConfirmedOrder(t, uuid.New(), restaurant.ID, a, b)

	payment, err := ordering.NewPayment(order)
	require.NoError(t, err)
	require.NoError(t, payment.Complete(order.CreatedAt))

	mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mocks.menu.On("IncrementStock", mock.Anything, a.ID, 2).Return(nil)
	mocks.menu.On("IncrementStock", mock.Anything, b.ID, 2).Return(nil)
	mocks.payments.On("FindByOrderID", mock.Anything, order.ID).Return(payment, nil)
	mocks.payments.On("Update", mock.Anything, payment).Return(nil)
	mocks.orders.On("Update", mock.Anything, order).Return(nil)

	resp, err := svc.UpdateStatus(ctx, ownerActor(restaurant.ID), order.ID, UpdateStatusRequest{Status: "cancelled"})

	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, "refunded", resp.PaymentStatus)
	assert.Equal(t, ordering.PaymentRefunded, payment.Status)
	assert.Equal(t, []uuid.UUID{restaurant.ID}, cache.restaurants)
	mocks.assertExpectations(t)
}

func TestStatusService_UpdateStatus_CancelAlsoCancelsPendingBatch(t *testing.T) {
	ctx := context.Background()
	mocks, scope := newRepoMocks()
	publisher := &recordingPublisher{}
	svc := NewStatusService(scope, nil)
	svc.SetEventPublisher(publisher)

	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Thali", 200, 10)
	order := newConfirmedOrder(t, uuid.New(), restaurant.ID, item)
	batch, err := delivery.NewBatch(order, "")
	require.NoError(t, err)
	order.AttachBatch(batch.BatchNumber)

	mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mocks.menu.On("IncrementStock", mock.Anything, item.ID, 2).Return(nil)
	mocks.payments.On("FindByOrderID", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)
	mocks.batches.On("FindByOrderID", mock.Anything, order.ID).Return(batch, nil)
	mocks.batches.On("Update", mock.Anything, batch).Return(nil)
	mocks.orders.On("Update", mock.Anything, order).Return(nil)

	_, err = svc.UpdateStatus(ctx, adminActor(), order.ID, UpdateStatusRequest{Status: "cancelled"})

	require.NoError(t, err)
	assert.Equal(t, delivery.BatchCancelled, batch.Status)
	assert.NotNil(t, batch.CancelledAt)
	assert.Equal(t, []string{ordering.EventTypeOrderStatusChanged, delivery.EventTypeBatchStatusChanged}, publisher.types())
	mocks.assertExpectations(t)
}

func TestStatusService_UpdateStatus_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	mocks, scope := newRepoMocks()
	svc := NewStatusService(scope, nil)
	id := uuid.New()
	mocks.orders.On("FindByID", mock.Anything, id).Return(nil, shared.NewPersistenceError("order.find", errors.New("connection reset")))

	_, err := svc.UpdateStatus(ctx, adminActor(), id, UpdateStatusRequest{Status: "preparing"})

	var pe *shared.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "order.find", pe.Op)
}
