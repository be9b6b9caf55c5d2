package delivery

import (
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedOrder(t *testing.T) *ordering.Order {
	o, err := ordering.NewOrder(uuid.New(), uuid.New(), []ordering.LineItem{
		{MenuItemID: uuid.New(), Name: "Dosa", Quantity: 1, UnitPrice: decimal.NewFromInt(90)},
	}, ordering.PaymentCash)
	require.NoError(t, err)
	require.NoError(t, o.Confirm(time.Now()))
	return o
}

func TestNewBatch(t *testing.T) {
	t.Run("unclaimed order starts created", func(t *testing.T) {
		o := confirmedOrder(t)
		b, err := NewBatch(o, " fragile ")
		require.NoError(t, err)
		assert.Equal(t, BatchCreated, b.Status)
		assert.Equal(t, "fragile", b.Notes)
		assert.Regexp(t, `^FOT-\d{8}-[0-9A-F]{6}$`, b.BatchNumber)
		assert.Nil(t, b.AssignedAt)
	})

	t.Run("claimed order starts assigned", func(t *testing.T) {
		o := confirmedOrder(t)
		require.NoError(t, o.AssignAgent(uuid.New()))
		b, err := NewBatch(o, "")
		require.NoError(t, err)
		assert.Equal(t, BatchAssigned, b.Status)
		assert.Equal(t, *o.DeliveryAgentID, *b.DeliveryAgentID)
		assert.NotNil(t, b.AssignedAt)
	})

	t.Run("order already batched", func(t *testing.T) {
		o := confirmedOrder(t)
		o.AttachBatch("FOT-20260101-ABCDEF")
		_, err := NewBatch(o, "")
		assert.Error(t, err)
	})

	t.Run("terminal order", func(t *testing.T) {
		o := confirmedOrder(t)
		o.Status = ordering.StatusDelivered
		_, err := NewBatch(o, "")
		assert.Error(t, err)
	})
}

func TestBatch_Lifecycle(t *testing.T) {
	b, err := NewBatch(confirmedOrder(t), "")
	require.NoError(t, err)

	agentID := uuid.New()
	agent := identity.Actor{UserID: agentID, Role: identity.RoleDeliveryGuy}
	require.NoError(t, b.Assign(agentID, time.Now()))
	assert.Error(t, b.Assign(uuid.New(), time.Now()))

	require.NoError(t, b.TransitionTo(agent, BatchPickedUp, time.Now()))
	require.NoError(t, b.TransitionTo(agent, BatchInTransit, time.Now()))
	require.NoError(t, b.TransitionTo(agent, BatchDelivered, time.Now()))

	assert.True(t, b.Status.IsTerminal())
	assert.NotNil(t, b.PickedUpAt)
	assert.NotNil(t, b.InTransitAt)
	assert.NotNil(t, b.DeliveredAt)
	assert.Nil(t, b.FailedAt)
	assert.Len(t, b.Events(), 3)
}

func TestBatch_StampOnce(t *testing.T) {
	b, err := NewBatch(confirmedOrder(t), "")
	require.NoError(t, err)
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.stamp(BatchPickedUp, first)
	b.stamp(BatchPickedUp, first.Add(time.Hour))
	assert.Equal(t, first, *b.PickedUpAt)
}

func TestCheckBatchTransition(t *testing.T) {
	tests := []struct {
		name     string
		role     identity.Role
		from, to BatchStatus
		wantCode string
	}{
		{"agent picks up", identity.RoleDeliveryGuy, BatchAssigned, BatchPickedUp, ""},
		{"agent fails in transit", identity.RoleDeliveryGuy, BatchInTransit, BatchFailed, ""},
		{"agent cannot cancel", identity.RoleDeliveryGuy, BatchAssigned, BatchCancelled, ordering.CodeForbiddenTransition},
		{"owner cancels created", identity.RoleRestaurantOwner, BatchCreated, BatchCancelled, ""},
		{"owner cannot deliver", identity.RoleRestaurantOwner, BatchInTransit, BatchDelivered, ordering.CodeForbiddenTransition},
		{"customer denied", identity.RoleCustomer, BatchCreated, BatchCancelled, ordering.CodeForbiddenTransition},
		{"nobody sets assigned", identity.RoleAdmin, BatchCreated, BatchAssigned, ordering.CodeForbiddenTransition},
		{"cancel after pickup", identity.RoleAdmin, BatchPickedUp, BatchCancelled, ordering.CodeInvalidTransition},
		{"skip pickup", identity.RoleDeliveryGuy, BatchAssigned, BatchInTransit, ordering.CodeInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBatchTransition(tt.role, tt.from, tt.to)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var fte *ordering.ForbiddenTransitionError
			require.ErrorAs(t, err, &fte)
			assert.Equal(t, tt.wantCode, fte.Code)
			assert.Equal(t, AggregateTypeBatch, fte.Entity)
		})
	}
}

func TestBatch_CanManage(t *testing.T) {
	o := confirmedOrder(t)
	agentID := uuid.New()
	require.NoError(t, o.AssignAgent(agentID))
	b, err := NewBatch(o, "")
	require.NoError(t, err)

	restaurantID := o.RestaurantID
	assert.True(t, b.CanManage(identity.Actor{UserID: agentID, Role: identity.RoleDeliveryGuy}))
	assert.False(t, b.CanManage(identity.Actor{UserID: uuid.New(), Role: identity.RoleDeliveryGuy}))
	assert.True(t, b.CanManage(identity.Actor{UserID: uuid.New(), Role: identity.RoleRestaurantOwner, RestaurantID: &restaurantID}))
	assert.False(t, b.CanManage(identity.Actor{UserID: o.UserID, Role: identity.RoleCustomer}))
	assert.True(t, b.CanManage(identity.Actor{UserID: uuid.New(), Role: identity.RoleAdmin}))
}

func TestOrderStatusFor(t *testing.T) {
	s, ok := OrderStatusFor(BatchInTransit)
	assert.True(t, ok)
	assert.Equal(t, ordering.StatusOutForDelivery, s)

	_, ok = OrderStatusFor(BatchFailed)
	assert.False(t, ok)
}

func TestParseBatchStatus(t *testing.T) {
	s, err := ParseBatchStatus("IN_TRANSIT")
	require.NoError(t, err)
	assert.Equal(t, BatchInTransit, s)
	_, err = ParseBatchStatus("lost")
	assert.Error(t, err)
}
