package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/foodontracks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Deduplicated runs its inner handler at most once per event id within the
// TTL. A failed run releases the id so a redelivery retries it; an
// unreachable store runs the handler anyway.
type Deduplicated struct {
	inner  shared.EventHandler
	store  shared.IdempotencyStore
	ttl    time.Duration
	prefix string
	logger *zap.Logger

	handled, skipped, failed atomic.Int64
}

type DedupOption func(*Deduplicated)

// WithEventTTL sets how long handled ids are remembered. Default 24h.
func WithEventTTL(ttl time.Duration) DedupOption {
	return func(d *Deduplicated) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the ids, e.g. per subscriber. Default "event:".
func WithKeyPrefix(prefix string) DedupOption {
	return func(d *Deduplicated) { d.prefix = prefix }
}

func Deduplicate(inner shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...DedupOption) *Deduplicated {
	d := &Deduplicated{
		inner:  inner,
		store:  store,
		ttl:    24 * time.Hour,
		prefix: "event:",
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Deduplicated) EventTypes() []string { return d.inner.EventTypes() }

func (d *Deduplicated) Handle(ctx context.Context, e shared.DomainEvent) error {
	key := d.prefix + e.EventID().String()
	fields := []zap.Field{zap.String("event_id", e.EventID().String()), zap.String("event_type", e.EventType())}

	first, err := d.store.MarkProcessed(ctx, key, d.ttl)
	if err != nil {
		d.logger.Warn("Event dedup store unavailable, handling anyway", append(fields, zap.Error(err))...)
	} else if !first {
		d.skipped.Add(1)
		d.logger.Debug("Duplicate event skipped", fields...)
		return nil
	}

	if err := d.inner.Handle(ctx, e); err != nil {
		d.failed.Add(1)
		if relErr := d.store.Release(ctx, key); relErr != nil {
			d.logger.Warn("Event key not released", append(fields, zap.Error(relErr))...)
		}
		return err
	}
	d.handled.Add(1)
	return nil
}

// Stats reports handled, skipped duplicate and failed deliveries
func (d *Deduplicated) Stats() (handled, skipped, failed int64) {
	return d.handled.Load(), d.skipped.Load(), d.failed.Load()
}

var _ shared.EventHandler = (*Deduplicated)(nil)
