package audit

import (
	"context"
	"fmt"

	"github.com/foodontracks/backend/internal/domain/audit"
	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Recorder writes a StatusAudit row for every committed order or batch
// status change it receives from the event bus
type Recorder struct {
	repo    audit.StatusAuditRepository
	metrics *telemetry.DeliveryMetrics
	logger  *zap.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(repo audit.StatusAuditRepository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger}
}

// SetMetrics sets the recorder used to count failed writes
func (r *Recorder) SetMetrics(m *telemetry.DeliveryMetrics) {
	r.metrics = m
}

// EventTypes returns the event types this handler is interested in
func (r *Recorder) EventTypes() []string {
	return []string{ordering.EventTypeOrderStatusChanged, delivery.EventTypeBatchStatusChanged}
}

// Handle persists the transition carried by event
func (r *Recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	record, err := recordFor(event)
	if err != nil {
		r.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return err
	}

	if err := r.repo.Create(ctx, record); err != nil {
		r.metrics.RecordAuditFailure(ctx, record.EntityType)
		r.logger.Error("failed to write status audit",
			zap.String("entity_type", record.EntityType),
			zap.String("entity_id", record.EntityID.String()),
			zap.String("from", record.FromStatus),
			zap.String("to", record.ToStatus),
			zap.String("actor_id", record.ActorID.String()),
			zap.String("actor_role", string(record.ActorRole)),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("write status audit: %w", err)
	}

	r.logger.Debug("status audit recorded",
		zap.String("entity_type", record.EntityType),
		zap.String("entity_id", record.EntityID.String()),
		zap.String("to", record.ToStatus),
	)
	return nil
}

func recordFor(event shared.DomainEvent) (*audit.StatusAudit, error) {
	switch e := event.(type) {
	case *ordering.OrderStatusChangedEvent:
		return audit.NewStatusAudit(audit.EntityOrder, e.AggregateID(),
			string(e.FromStatus), string(e.ToStatus), e.ActorID, e.ActorRole, e.OccurredAt())
	case *delivery.BatchStatusChangedEvent:
		return audit.NewStatusAudit(audit.EntityBatch, e.AggregateID(),
			string(e.FromStatus), string(e.ToStatus), e.ActorID, e.ActorRole, e.OccurredAt())
	}
	return nil, fmt.Errorf("unexpected event type: %s", event.EventType())
}
