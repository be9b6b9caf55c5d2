package models

import (
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItems_Scan(t *testing.T) {
	t.Run("scans bytes", func(t *testing.T) {
		var items LineItems
		err := items.Scan([]byte(`[{"menuItemId":"6f1c2a64-6b0e-4d6d-9a57-0f9c1f2b1a11","name":"Dal","quantity":2,"unitPrice":"120","subtotal":"240"}]`))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
		assert.True(t, decimal.NewFromInt(240).Equal(items[0].Subtotal))
	})

	t.Run("scans nil as empty", func(t *testing.T) {
		var items LineItems
		require.NoError(t, items.Scan(nil))
		assert.Empty(t, items)
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var items LineItems
		assert.Error(t, items.Scan(42))
	})
}

func TestLineItems_Value(t *testing.T) {
	v, err := LineItems(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTimeline_ScanString(t *testing.T) {
	var tl Timeline
	require.NoError(t, tl.Scan(`{"placed":"2026-01-02T03:04:05Z"}`))
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), tl["placed"].UTC())

	v, err := Timeline(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestOrderModel_RoundTrip(t *testing.T) {
	order, err := ordering.NewOrder(uuid.New(), uuid.New(), []ordering.LineItem{
		{MenuItemID: uuid.New(), Name: "Idli", Quantity: 3, UnitPrice: decimal.NewFromInt(40)},
	}, ordering.PaymentWallet)
	require.NoError(t, err)
	agent := uuid.New()
	order.DeliveryAgentID = &agent

	back := OrderModelFromDomain(order).ToDomain()
	assert.Equal(t, order.ID, back.ID)
	assert.Equal(t, order.Items, back.Items)
	assert.Equal(t, order.Timeline, back.Timeline)
	assert.Equal(t, order.Version, back.Version)
	assert.Equal(t, agent, *back.DeliveryAgentID)
}
