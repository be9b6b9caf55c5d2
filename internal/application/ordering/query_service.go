package ordering

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// QueryService serves order reads scoped to the caller
type QueryService struct {
	orders   ordering.OrderRepository
	payments ordering.PaymentRepository
}

// NewQueryService creates a QueryService
func NewQueryService(orders ordering.OrderRepository, payments ordering.PaymentRepository) *QueryService {
	return &QueryService{orders: orders, payments: payments}
}

// GetOrder returns the order if the caller may see it. Orders the caller may
// not see are reported as missing.
func (s *QueryService) GetOrder(ctx context.Context, actor identity.Actor, id uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ordering", "GetOrder", attribute.String("order.id", id.String()))
	defer span.End()

	order, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListOrders lists the orders within the caller's ownership scope
func (s *QueryService) ListOrders(ctx context.Context, actor identity.Actor, q ListOrdersQuery) (*shared.Paginated[OrderResponse], error) {
	filter := ordering.OrderFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  q.OrderBy,
			OrderDir: q.OrderDir,
			Search:   q.Search,
		},
	}
	if q.Status != "" {
		st, err := ordering.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &st
	}

	switch actor.Role {
	case identity.RoleAdmin:
	case identity.RoleCustomer:
		filter.UserID = &actor.UserID
	case identity.RoleRestaurantOwner:
		if actor.RestaurantID == nil {
			return emptyPage(filter.Filter), nil
		}
		filter.RestaurantID = actor.RestaurantID
	case identity.RoleDeliveryGuy:
		filter.DeliveryAgentID = &actor.UserID
	default:
		return nil, shared.ErrForbidden
	}

	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	f := filter.Normalize()
	page := shared.NewPaginated(ToOrderResponses(orders), total, f.Page, f.PageSize)
	return &page, nil
}

// ListClaimable lists unassigned orders for delivery agents
func (s *QueryService) ListClaimable(ctx context.Context, actor identity.Actor, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	if actor.Role != identity.RoleDeliveryGuy && actor.Role != identity.RoleAdmin {
		return nil, shared.ErrForbidden
	}
	orders, total, err := s.orders.ListClaimable(ctx, filter)
	if err != nil {
		return nil, err
	}
	f := filter.Normalize()
	page := shared.NewPaginated(ToOrderResponses(orders), total, f.Page, f.PageSize)
	return &page, nil
}

// GetPayment returns the payment of an order visible to the caller
func (s *QueryService) GetPayment(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*PaymentResponse, error) {
	if _, err := s.loadVisible(ctx, actor, orderID); err != nil {
		return nil, err
	}
	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, notFoundAs(err, "Payment")
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

func (s *QueryService) loadVisible(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ordering.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Order")
	}
	if !ordering.CanAccess(actor, order) {
		return nil, shared.NewNotFoundError("Order")
	}
	return order, nil
}

func emptyPage(f shared.Filter) *shared.Paginated[OrderResponse] {
	f = f.Normalize()
	page := shared.NewPaginated([]OrderResponse{}, 0, f.Page, f.PageSize)
	return &page
}
