package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long an Idempotency-Key stays reserved
const DefaultIdempotencyTTL = 24 * time.Hour

// Placement error codes
var (
	ErrRestaurantClosed  = shared.NewDomainError("RESTAURANT_CLOSED", "Restaurant is not accepting orders")
	ErrInjectedFailure   = shared.NewDomainError("INJECTED_FAILURE", "Order placement aborted by injected failure")
	ErrDuplicateRequest  = shared.NewDomainError("DUPLICATE_REQUEST", "A request with this Idempotency-Key is already being processed or was completed")
	errPriceMismatchCode = "PRICE_MISMATCH"
)

// PlacementConfig holds placement settings
type PlacementConfig struct {
	// AllowFailureInjection honours PlaceOrderCommand.InjectFailure
	AllowFailureInjection bool
	IdempotencyTTL        time.Duration
}

// PlacementService places orders. Stock, order and payment are written in
// one transaction; events, cache invalidation and metrics follow the commit.
type PlacementService struct {
	scope       TransactionScope
	config      PlacementConfig
	idempotency shared.IdempotencyStore
	publisher   shared.EventPublisher
	menuCache   MenuInvalidator
	metrics     *telemetry.DeliveryMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewPlacementService creates a PlacementService
func NewPlacementService(scope TransactionScope, cfg PlacementConfig, logger *zap.Logger) *PlacementService {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{
		scope:  scope,
		config: cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetIdempotencyStore enables Idempotency-Key handling
func (s *PlacementService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetEventPublisher sets the publisher for OrderPlaced events
func (s *PlacementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMenuInvalidator sets the cache that is invalidated after stock changes
func (s *PlacementService) SetMenuInvalidator(cache MenuInvalidator) {
	s.menuCache = cache
}

// SetMetrics sets the business metrics recorder
func (s *PlacementService) SetMetrics(m *telemetry.DeliveryMetrics) {
	s.metrics = m
}

// PlaceOrder validates cmd against the stored menu, reserves stock with a
// guarded decrement, records a completed payment and confirms the order.
// Any failure leaves no trace in the database.
func (s *PlacementService) PlaceOrder(ctx context.Context, actor identity.Actor, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ordering", "PlaceOrder",
		attribute.String("restaurant.id", cmd.RestaurantID.String()),
		attribute.Int("order.line_count", len(cmd.Items)),
	)
	defer span.End()

	if err := validatePlacement(cmd); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	method, err := ordering.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	release, err := s.reserveKey(ctx, actor.UserID, cmd.IdempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	injectFailure := cmd.InjectFailure
	if injectFailure && !s.config.AllowFailureInjection {
		s.logger.Warn("Ignoring failure injection request; disabled by configuration",
			zap.String("user_id", actor.UserID.String()))
		injectFailure = false
	}

	var (
		order   *ordering.Order
		payment *ordering.Payment
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		restaurant, err := repos.Restaurants().FindByID(ctx, cmd.RestaurantID)
		if err != nil {
			return notFoundAs(err, "Restaurant")
		}
		if !restaurant.IsOpen {
			return ErrRestaurantClosed
		}

		stock, lines, err := s.priceLines(ctx, repos.MenuItems(), restaurant.ID, cmd.Items)
		if err != nil {
			return err
		}

		order, err = ordering.NewOrder(actor.UserID, restaurant.ID, lines, method)
		if err != nil {
			return err
		}
		if err := order.SetDeliveryDetails(cmd.DeliveryAddressID, cmd.Notes); err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		for _, line := range order.SortedItems() {
			if line.Quantity > stock[line.MenuItemID] {
				return insufficientStock(line, stock[line.MenuItemID])
			}
			ok, err := repos.MenuItems().DecrementStock(ctx, line.MenuItemID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return insufficientStock(line, -1)
			}
		}

		if injectFailure {
			return ErrInjectedFailure
		}

		now := s.now()
		payment, err = ordering.NewPayment(order)
		if err != nil {
			return err
		}
		if err := payment.Complete(now); err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}

		if err := order.Confirm(now); err != nil {
			return err
		}
		order.Record(ordering.NewOrderStatusChangedEvent(order, ordering.StatusPending, ordering.StatusConfirmed, actor))
		return repos.Orders().Update(ctx, order)
	})
	if err != nil {
		release()
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.metrics.RecordStockRejection(ctx)
		}
		telemetry.RecordError(span, err)
		s.logger.Info("Order placement rejected",
			zap.String("user_id", actor.UserID.String()),
			zap.String("restaurant_id", cmd.RestaurantID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	PublishCommitted(ctx, s.publisher, s.logger, drainEvents(order)...)
	if s.menuCache != nil {
		s.menuCache.Invalidate(ctx, order.RestaurantID)
	}
	s.metrics.RecordOrderPlaced(ctx, string(order.PaymentMethod), order.TotalAmount)
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	return &PlaceOrderResult{
		Order:   ToOrderResponse(order),
		Payment: ToPaymentResponse(payment),
	}, nil
}

func validatePlacement(cmd PlaceOrderCommand) error {
	if cmd.RestaurantID == uuid.Nil {
		return shared.NewValidationError("restaurantId is required")
	}
	if len(cmd.Items) == 0 {
		return shared.NewValidationError("Order must contain at least one item")
	}
	for i, item := range cmd.Items {
		if item.Quantity < 1 || item.Quantity > ordering.MaxLineQuantity {
			return shared.NewValidationError("items[%d]: quantity must be between 1 and %d", i, ordering.MaxLineQuantity)
		}
	}
	return nil
}

// priceLines resolves each requested line against the stored menu. It
// returns the stock read inside the transaction keyed by menu item.
func (s *PlacementService) priceLines(ctx context.Context, menu catalog.MenuItemRepository, restaurantID uuid.UUID, items []PlaceOrderItem) (map[uuid.UUID]int, []ordering.LineItem, error) {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.MenuItemID
	}
	found, err := menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]*catalog.MenuItem, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	stock := make(map[uuid.UUID]int, len(items))
	lines := make([]ordering.LineItem, 0, len(items))
	for i, it := range items {
		m, ok := byID[it.MenuItemID]
		if !ok {
			return nil, nil, shared.NewNotFoundError("Menu item")
		}
		if m.RestaurantID != restaurantID {
			return nil, nil, shared.NewValidationError("items[%d]: menu item %s is not on this restaurant's menu", i, it.MenuItemID)
		}
		if !m.IsAvailable {
			return nil, nil, shared.NewValidationError("items[%d]: %s is not available", i, m.Name)
		}
		if it.UnitPrice != nil && !it.UnitPrice.Equal(m.Price) {
			return nil, nil, shared.NewDomainError(errPriceMismatchCode,
				fmt.Sprintf("Price for %s changed: expected %s, current %s", m.Name, it.UnitPrice.StringFixed(2), m.Price.StringFixed(2)))
		}
		stock[m.ID] = m.Stock
		lines = append(lines, ordering.LineItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   it.Quantity,
			UnitPrice:  m.Price,
		})
	}
	return stock, lines, nil
}

func insufficientStock(line ordering.LineItem, available int) error {
	msg := fmt.Sprintf("Insufficient stock for %s: requested %d", line.Name, line.Quantity)
	if available >= 0 {
		msg = fmt.Sprintf("%s, available %d", msg, available)
	}
	return shared.NewDomainError(shared.ErrInsufficientStock.Code, msg)
}

// reserveKey claims the caller's Idempotency-Key. The returned func releases
// it and is safe to call when no key was reserved. A store outage does not
// block ordering.
func (s *PlacementService) reserveKey(ctx context.Context, userID uuid.UUID, key string) (func(), error) {
	noop := func() {}
	if key == "" || s.idempotency == nil {
		return noop, nil
	}
	if len(key) > 128 {
		return noop, shared.NewValidationError("Idempotency-Key must be at most 128 characters")
	}
	scoped := "order:" + userID.String() + ":" + key

	fresh, err := s.idempotency.MarkProcessed(ctx, scoped, s.config.IdempotencyTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable; placing order without key reservation",
			zap.String("user_id", userID.String()), zap.Error(err))
		return noop, nil
	}
	if !fresh {
		s.metrics.RecordDuplicateSubmission(ctx)
		return noop, ErrDuplicateRequest
	}
	return func() {
		// the request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.idempotency.Release(releaseCtx, scoped); err != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", scoped), zap.Error(err))
		}
	}, nil
}
