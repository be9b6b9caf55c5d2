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

// StatusService applies role-checked order status changes
type StatusService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	menuCache MenuInvalidator
	metrics   *telemetry.DeliveryMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatusService creates a StatusService
func NewStatusService(scope TransactionScope, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		scope:  scope,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the publisher for status change events
func (s *StatusService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMenuInvalidator sets the cache invalidated when a cancellation restores stock
func (s *StatusService) SetMenuInvalidator(cache MenuInvalidator) {
	s.menuCache = cache
}

// SetMetrics sets the business metrics recorder
func (s *StatusService) SetMetrics(m *telemetry.DeliveryMetrics) {
	s.metrics = m
}

// UpdateStatus moves an order to the requested status. The caller must be
// able to see the order and its role must allow the transition; the state
// table must allow it too. Cancellation restores stock and refunds a
// completed payment in the same transaction.
func (s *StatusService) UpdateStatus(ctx context.Context, actor identity.Actor, orderID uuid.UUID, req UpdateStatusRequest) (*StatusChangeResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ordering", "UpdateStatus",
		attribute.String("order.id", orderID.String()),
		attribute.String("order.target_status", req.Status),
	)
	defer span.End()

	target, err := ordering.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var (
		order   *ordering.Order
		batch   *delivery.Batch
		result  ordering.TransitionResult
		payment *ordering.Payment
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err = repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return notFoundAs(err, "Order")
		}
		// a role that may never set the target is a transition error
		// whatever the ownership or claim state of the order
		if !ordering.RoleAllows(actor.Role, order.Status, target) {
			return ordering.NewRoleTransitionError(ordering.AggregateTypeOrder, actor.Role, string(order.Status), string(target))
		}
		if !ordering.CanAccess(actor, order) {
			return shared.ErrForbidden
		}
		if actor.Role == identity.RoleDeliveryGuy && order.DeliveryAgentID == nil {
			return shared.NewDomainError(shared.ErrForbidden.Code, "Claim the order before updating its status")
		}

		result, err = order.TransitionTo(actor, target, s.now())
		if err != nil {
			return err
		}

		if result.RestoreStock {
			for _, line := range order.SortedItems() {
				if err := repos.MenuItems().IncrementStock(ctx, line.MenuItemID, line.Quantity); err != nil {
					return err
				}
			}
		}
		if result.RefundPayment {
			payment, err = repos.Payments().FindByOrderID(ctx, order.ID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if payment != nil && payment.Refund(s.now()) {
				if err := repos.Payments().Update(ctx, payment); err != nil {
					return err
				}
			}
		}
		if target == ordering.StatusCancelled && order.BatchNumber != "" {
			batch, err = s.cancelBatch(ctx, repos, actor, order.ID)
			if err != nil {
				return err
			}
		}

		return repos.Orders().Update(ctx, order)
	})
	if err != nil {
		s.recordRejection(ctx, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	PublishCommitted(ctx, s.publisher, s.logger, drainEvents(order)...)
	if batch != nil {
		PublishCommitted(ctx, s.publisher, s.logger, drainEvents(batch)...)
	}
	if result.RestoreStock && s.menuCache != nil {
		s.menuCache.Invalidate(ctx, order.RestaurantID)
	}
	s.metrics.RecordTransition(ctx, ordering.AggregateTypeOrder, string(result.From), string(result.To))

	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(result.From)),
		zap.String("to", string(result.To)),
		zap.String("actor_id", actor.UserID.String()),
		zap.String("actor_role", string(actor.Role)),
	)

	return &StatusChangeResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		PreviousState: string(result.From),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Timeline:      copyTimeline(order.Timeline),
		Version:       order.Version,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}

// cancelBatch cancels the order's batch when it has not been picked up yet.
// A batch already on the road is left to the delivery agent.
func (s *StatusService) cancelBatch(ctx context.Context, repos TransactionalRepositories, actor identity.Actor, orderID uuid.UUID) (*delivery.Batch, error) {
	batch, err := repos.Batches().FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := batch.TransitionTo(actor, delivery.BatchCancelled, s.now()); err != nil {
		var fte *ordering.ForbiddenTransitionError
		if errors.As(err, &fte) {
			s.logger.Debug("Batch left unchanged on order cancellation",
				zap.String("batch_number", batch.BatchNumber),
				zap.String("batch_status", string(batch.Status)))
			return nil, nil
		}
		return nil, err
	}
	if err := repos.Batches().Update(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *StatusService) recordRejection(ctx context.Context, err error) {
	var fte *ordering.ForbiddenTransitionError
	if errors.As(err, &fte) {
		s.metrics.RecordRejectedTransition(ctx, ordering.AggregateTypeOrder, fte.Code)
	}
}
