package ordering

import (
	"context"
	"errors"
	"time"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MenuInvalidator drops cached catalog entries for a restaurant
type MenuInvalidator interface {
	Invalidate(ctx context.Context, restaurantID uuid.UUID)
}

// publishTimeout bounds the synchronous handlers run after a commit
const publishTimeout = 5 * time.Second

// PublishCommitted hands events to the publisher after the transaction that
// produced them has committed. Handlers run on the caller's goroutine with
// the request's values but their own deadline, so a request close to its
// timeout does not lose audit rows. Publishing is best effort; errors are
// logged.
func PublishCommitted(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.String("first_event_type", events[0].EventType()),
			zap.Error(err),
		)
	}
}

// drainEvents returns and clears the events collected on the aggregates
func drainEvents(aggregates ...shared.EventSource) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		if a == nil {
			continue
		}
		events = append(events, a.TakeEvents()...)
	}
	return events
}

// notFoundAs names the entity in a bare repository ErrNotFound
func notFoundAs(err error, entity string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(entity)
	}
	return err
}
