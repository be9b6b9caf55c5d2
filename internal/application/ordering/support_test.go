package ordering

import (
	"context"
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ctxKey struct{}

type contextCapture struct {
	ctx context.Context
}

func (c *contextCapture) Publish(ctx context.Context, _ ...shared.DomainEvent) error {
	c.ctx = ctx
	return ctx.Err()
}

func TestPublishCommitted_OutlivesExpiredRequest(t *testing.T) {
	restaurant := newTestRestaurant(t)
	item := newTestMenuItem(t, restaurant.ID, "Dosa", 90, 5)
	order := newConfirmedOrder(t, customerActor().UserID, restaurant.ID, item)
	_, err := order.TransitionTo(adminActor(), "preparing", time.Now())
	require.NoError(t, err)

	parent, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-42"))
	cancel()

	capture := &contextCapture{}
	PublishCommitted(parent, capture, zap.NewNop(), drainEvents(order)...)

	require.NotNil(t, capture.ctx)
	assert.NoError(t, capture.ctx.Err(), "handlers must not see the request cancellation")
	assert.Equal(t, "req-42", capture.ctx.Value(ctxKey{}))
	deadline, ok := capture.ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(publishTimeout), deadline, time.Second)
}

func TestPublishCommitted_NothingToPublish(t *testing.T) {
	capture := &contextCapture{}
	PublishCommitted(context.Background(), capture, zap.NewNop())
	assert.Nil(t, capture.ctx)

}
