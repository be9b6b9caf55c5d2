// Package event delivers committed domain events to in-process subscribers.
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/foodontracks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FailureHook observes handler failures, including recovered panics
type FailureHook func(ctx context.Context, event shared.DomainEvent, err error)

// InMemoryEventBus dispatches events synchronously to subscribed handlers.
// Events are published only after the owning transaction committed, so a
// failing handler never rolls back business state; its error is logged and
// passed to the failure hook.
type InMemoryEventBus struct {
	subs      *subscriptions
	logger    *zap.Logger
	onFailure FailureHook
	running   atomic.Bool
	inFlight  sync.WaitGroup
	published atomic.Int64
	failed    atomic.Int64
}

// BusOption configures the bus
type BusOption func(*InMemoryEventBus)

// WithFailureHook registers a callback for handler failures
func WithFailureHook(hook FailureHook) BusOption {
	return func(b *InMemoryEventBus) {
		b.onFailure = hook
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		subs:   newSubscriptions(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands each event to every matching handler in registration order
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.inFlight.Add(1)
	defer b.inFlight.Done()

	for _, event := range events {
		b.published.Add(1)
		for _, handler := range b.subs.handlersFor(event.EventType()) {
			if err := b.dispatchToHandler(ctx, handler, event); err != nil {
				b.failed.Add(1)
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID().String()),
					zap.Error(err),
				)
				if b.onFailure != nil {
					b.onFailure(ctx, event, err)
				}
			}
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used; an empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
}

// Start marks the bus running
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop waits for in-flight publishes to drain or ctx to expire
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)

	done := make(chan struct{})
	go func() {
		b.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped",
			zap.Int64("published", b.published.Load()),
			zap.Int64("handler_failures", b.failed.Load()),
		)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

// Running reports whether Start has been called without a matching Stop
func (b *InMemoryEventBus) Running() bool {
	return b.running.Load()
}

// Stats returns the number of events published and handler failures seen
func (b *InMemoryEventBus) Stats() (published, failed int64) {
	return b.published.Load(), b.failed.Load()
}

func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
