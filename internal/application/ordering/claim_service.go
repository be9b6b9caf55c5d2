package ordering

import (
	"context"
	"errors"
	"time"

	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrAlreadyClaimed is returned to the agent that lost a claim race
var ErrAlreadyClaimed = shared.NewDomainError("ALREADY_CLAIMED", "Order has already been claimed by another delivery agent")

// ClaimService lets delivery agents claim unassigned orders
type ClaimService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	metrics   *telemetry.DeliveryMetrics
	logger    *zap.Logger
}

// NewClaimService creates a ClaimService
func NewClaimService(scope TransactionScope, logger *zap.Logger) *ClaimService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{scope: scope, logger: logger}
}

// SetEventPublisher sets the publisher for claim events
func (s *ClaimService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *ClaimService) SetMetrics(m *telemetry.DeliveryMetrics) {
	s.metrics = m
}

// Claim assigns the calling agent to the order with a single compare-and-swap.
// Exactly one of several concurrent claimants wins; the others get
// ALREADY_CLAIMED. An unassigned batch for the order is assigned in the same
// transaction.
func (s *ClaimService) Claim(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ordering", "Claim",
		attribute.String("order.id", orderID.String()),
		attribute.String("agent.id", actor.UserID.String()),
	)
	defer span.End()

	if actor.Role != identity.RoleDeliveryGuy {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Only delivery agents can claim orders")
	}

	var (
		order *ordering.Order
		batch *delivery.Batch
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		won, err := repos.Orders().ClaimForAgent(ctx, orderID, actor.UserID)
		if err != nil {
			return err
		}
		if !won {
			if _, err := repos.Orders().FindByID(ctx, orderID); err != nil {
				return notFoundAs(err, "Order")
			}
			return ErrAlreadyClaimed
		}

		assigned, err := repos.Batches().AssignUnassigned(ctx, orderID, actor.UserID)
		if err != nil {
			return err
		}
		if assigned {
			batch, err = repos.Batches().FindByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			batch.Record(delivery.NewBatchStatusChangedEvent(batch, delivery.BatchCreated, delivery.BatchAssigned, actor))
		}

		order, err = repos.Orders().FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			s.metrics.RecordClaim(ctx, false)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	events := []shared.DomainEvent{ordering.NewOrderClaimedEvent(orderID, actor.UserID)}
	if batch != nil {
		events = append(events, drainEvents(batch)...)
	}
	PublishCommitted(ctx, s.publisher, s.logger, events...)
	s.metrics.RecordClaim(ctx, true)

	s.logger.Info("Order claimed",
		zap.String("order_id", orderID.String()),
		zap.String("agent_id", actor.UserID.String()),
		zap.Bool("batch_assigned", batch != nil),
		zap.Time("claimed_at", time.Now().UTC()),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}
