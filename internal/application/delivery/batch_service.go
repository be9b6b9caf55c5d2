package delivery

import (
	"context"
	"errors"
	"time"

	appordering "github.com/foodontracks/backend/internal/application/ordering"
	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrBatchExists is returned when the order already has a batch
var ErrBatchExists = shared.NewConflictError("Order already has a batch")

// BatchService creates delivery batches and drives their lifecycle
type BatchService struct {
	scope     appordering.TransactionScope
	batches   delivery.BatchRepository
	publisher shared.EventPublisher
	metrics   *telemetry.DeliveryMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewBatchService creates a new BatchService
func NewBatchService(scope appordering.TransactionScope, batches delivery.BatchRepository, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		scope:   scope,
		batches: batches,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the publisher for batch and order status events
func (s *BatchService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *BatchService) SetMetrics(m *telemetry.DeliveryMetrics) {
	s.metrics = m
}

// CreateBatch opens the delivery batch for an order and copies its tracking
// number onto the order. Restaurant owners and admins only.
func (s *BatchService) CreateBatch(ctx context.Context, actor identity.Actor, req CreateBatchRequest) (*BatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "CreateBatch",
		attribute.String("order.id", req.OrderID.String()))
	defer span.End()

	if actor.Role != identity.RoleRestaurantOwner && !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	var batch *delivery.Batch
	err := s.scope.Execute(ctx, func(repos appordering.TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, req.OrderID)
		if err != nil {
			return notFound(err, "Order")
		}
		if !ordering.CanAccess(actor, order) {
			return shared.NewNotFoundError("Order")
		}
		if order.BatchNumber != "" {
			return ErrBatchExists
		}

		batch, err = delivery.NewBatch(order, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.Batches().Create(ctx, batch); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return ErrBatchExists
			}
			return err
		}
		order.AttachBatch(batch.BatchNumber)
		return repos.Orders().SetBatchNumber(ctx, order.ID, batch.BatchNumber)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Delivery batch created",
		zap.String("batch_number", batch.BatchNumber),
		zap.String("order_id", batch.OrderID.String()),
		zap.String("status", string(batch.Status)),
		zap.String("created_by", actor.UserID.String()),
	)
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// UpdateBatchStatus applies a role-checked batch transition. Pickup, transit
// and delivery move the order along in the same transaction; if the order
// cannot follow, nothing is written.
func (s *BatchService) UpdateBatchStatus(ctx context.Context, actor identity.Actor, batchID uuid.UUID, req UpdateBatchStatusRequest) (*BatchStatusChangeResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "UpdateBatchStatus",
		attribute.String("batch.id", batchID.String()),
		attribute.String("batch.target_status", req.Status),
	)
	defer span.End()

	target, err := delivery.ParseBatchStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var (
		batch *delivery.Batch
		order *ordering.Order
		from  delivery.BatchStatus
	)
	err = s.scope.Execute(ctx, func(repos appordering.TransactionalRepositories) error {
		batch, err = repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return notFound(err, "Batch")
		}
		if !batch.CanManage(actor) {
			return shared.ErrForbidden
		}
		from = batch.Status
		now := s.now()
		if err := batch.TransitionTo(actor, target, now); err != nil {
			return err
		}

		if orderStatus, ok := delivery.OrderStatusFor(target); ok {
			order, err = s.advanceOrder(ctx, repos, actor, batch.OrderID, orderStatus, now)
			if err != nil {
				return err
			}
		}
		return repos.Batches().Update(ctx, batch)
	})
	if err != nil {
		var fte *ordering.ForbiddenTransitionError
		if errors.As(err, &fte) {
			s.metrics.RecordRejectedTransition(ctx, fte.Entity, fte.Code)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	appordering.PublishCommitted(ctx, s.publisher, s.logger, batch.TakeEvents()...)
	resp := &BatchStatusChangeResponse{
		Batch:          ToBatchResponse(batch),
		PreviousStatus: string(from),
	}
	if order != nil {
		appordering.PublishCommitted(ctx, s.publisher, s.logger, order.TakeEvents()...)
		resp.OrderStatus = string(order.Status)
	}
	s.metrics.RecordTransition(ctx, delivery.AggregateTypeBatch, string(from), string(target))

	s.logger.Info("Batch status changed",
		zap.String("batch_number", batch.BatchNumber),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.UserID.String()),
		zap.String("actor_role", string(actor.Role)),
	)
	return resp, nil
}

// advanceOrder moves the order to status unless it is already there or past
// it. A returned order carries the pending status event.
func (s *BatchService) advanceOrder(ctx context.Context, repos appordering.TransactionalRepositories, actor identity.Actor, orderID uuid.UUID, status ordering.Status, at time.Time) (*ordering.Order, error) {
	order, err := repos.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	if alreadyReached(order.Status, status) {
		return nil, nil
	}
	if _, err := order.TransitionTo(actor, status, at); err != nil {
		return nil, err
	}
	if err := repos.Orders().Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// alreadyReached reports whether current is at or beyond target on the
// delivery path. picked_up and picked_by_delivery both mean collected.
func alreadyReached(current, target ordering.Status) bool {
	if current == ordering.StatusCancelled {
		return false
	}
	rank := func(s ordering.Status) int {
		switch s {
		case ordering.StatusPickedUp, ordering.StatusPickedByDelivery:
			return 1
		case ordering.StatusOutForDelivery:
			return 2
		case ordering.StatusDelivered:
			return 3
		}
		return 0
	}
	return rank(current) > 0 && rank(current) >= rank(target)
}

// GetBatch returns a batch the caller may manage
func (s *BatchService) GetBatch(ctx context.Context, actor identity.Actor, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Batch")
	}
	if !batch.CanManage(actor) {
		return nil, shared.NewNotFoundError("Batch")
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// GetByBatchNumber is the public tracking lookup
func (s *BatchService) GetByBatchNumber(ctx context.Context, batchNumber string) (*TrackingResponse, error) {
	batch, err := s.batches.FindByBatchNumber(ctx, batchNumber)
	if err != nil {
		return nil, notFound(err, "Batch")
	}
	resp := ToTrackingResponse(batch)
	return &resp, nil
}

// ListMyBatches lists the calling delivery agent's batches
func (s *BatchService) ListMyBatches(ctx context.Context, actor identity.Actor, q ListBatchesQuery) (*shared.Paginated[BatchResponse], error) {
	if actor.Role != identity.RoleDeliveryGuy {
		return nil, shared.ErrForbidden
	}
	filter := shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}.Normalize()

	batches, total, err := s.batches.FindByAgent(ctx, actor.UserID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BatchResponse, len(batches))
	for i, b := range batches {
		items[i] = ToBatchResponse(b)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func notFound(err error, entity string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(entity)
	}
	return err
}
