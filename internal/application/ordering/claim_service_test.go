package ordering

import (
	"context"
	"testing"

	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClaimService_Claim(t *testing.T) {
	ctx := context.Background()
	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Pav Bhaji", 110, 10)

	t.Run("winner is assigned and its batch moves to assigned", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		publisher := &recordingPublisher{}
		svc := NewClaimService(scope, nil)
		svc.SetEventPublisher(publisher)

		agent := agentActor()
		order := newConfirmedOrder(t, uuid.New(), restaurant.ID, item)
		batch, err := delivery.NewBatch(order, "")
		require.NoError(t, err)
		claimed := *order
		claimed.DeliveryAgentID = &agent.UserID
		batch.DeliveryAgentID = &agent.UserID
		batch.Status = delivery.BatchAssigned

		mocks.orders.On("ClaimForAgent", mock.Anything, order.ID, agent.UserID).Return(true, nil)
		mocks.batches.On("AssignUnassigned", mock.Anything, order.ID, agent.UserID).Return(true, nil)
		mocks.batches.On("FindByOrderID", mock.Anything, order.ID).Return(batch, nil)
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(&claimed, nil)

		resp, err := svc.Claim(ctx, agent, order.ID)

		require.NoError(t, err)
		require.NotNil(t, resp.DeliveryAgentID)
		assert.Equal(t, agent.UserID, *resp.DeliveryAgentID)
		assert.Equal(t, []string{ordering.EventTypeOrderClaimed, delivery.EventTypeBatchStatusChanged}, publisher.types())
		mocks.assertExpectations(t)
	})

	t.Run("order without batch", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewClaimService(scope, nil)
		agent := agentActor()
		order := newConfirmedOrder(t, uuid.New(), restaurant.ID, item)

		mocks.orders.On("ClaimForAgent", mock.Anything, order.ID, agent.UserID).Return(true, nil)
		mocks.batches.On("AssignUnassigned", mock.Anything, order.ID, agent.UserID).Return(false, nil)
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.Claim(ctx, agent, order.ID)

		require.NoError(t, err)
		mocks.batches.AssertNotCalled(t, "FindByOrderID", mock.Anything, mock.Anything)
	})

	t.Run("loser gets ALREADY_CLAIMED", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewClaimService(scope, nil)
		agent := agentActor()
		order := newConfirmedOrder(t, uuid.New(), restaurant.ID, item)

		mocks.orders.On("ClaimForAgent", mock.Anything, order.ID, agent.UserID).Return(false, nil)
		mocks.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.Claim(ctx, agent, order.ID)

		assert.ErrorIs(t, err, ErrAlreadyClaimed)
		mocks.batches.AssertNotCalled(t, "AssignUnassigned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing order", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewClaimService(scope, nil)
		agent := agentActor()
		id := uuid.New()

		mocks.orders.On("ClaimForAgent", mock.Anything, id, agent.UserID).Return(false, nil)
		mocks.orders.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Claim(ctx, agent, id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("only delivery agents may claim", func(t *testing.T) {
		mocks, scope := newRepoMocks()
		svc := NewClaimService(scope, nil)

		_, err := svc.Claim(ctx, ownerActor(restaurant.ID), uuid.New())

		assert.ErrorIs(t, err, shared.ErrForbidden)
		mocks.orders.AssertNotCalled(t, "ClaimForAgent", mock.Anything, mock.Anything, mock.Anything)
	})
}
