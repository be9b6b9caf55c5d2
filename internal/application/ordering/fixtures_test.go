package ordering

import (
	"context"
	"sync"
	"testing"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type repoMocks struct {
	orders      *testutil.MockOrderRepository
	payments    *testutil.MockPaymentRepository
	menu        *testutil.MockMenuItemRepository
	restaurants *testutil.MockRestaurantRepository
	batches     *testutil.MockBatchRepository
	reviews     *testutil.MockReviewRepository
}

func newRepoMocks() (*repoMocks, *NoOpTransactionScope) {
	m := &repoMocks{
		orders:      new(testutil.MockOrderRepository),
		payments:    new(testutil.MockPaymentRepository),
		menu:        new(testutil.MockMenuItemRepository),
		restaurants: new(testutil.MockRestaurantRepository),
		batches:     new(testutil.MockBatchRepository),
		reviews:     new(testutil.MockReviewRepository),
	}
	return m, &NoOpTransactionScope{
		OrderRepo:      m.orders,
		PaymentRepo:    m.payments,
		MenuItemRepo:   m.menu,
		RestaurantRepo: m.restaurants,
		BatchRepo:      m.batches,
		ReviewRepo:     m.reviews,
	}
}

func (m *repoMocks) assertExpectations(t *testing.T) {
	t.Helper()
	m.orders.AssertExpectations(t)
	m.payments.AssertExpectations(t)
	m.menu.AssertExpectations(t)
	m.restaurants.AssertExpectations(t)
	m.batches.AssertExpectations(t)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type recordingInvalidator struct {
	restaurants []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, restaurantID uuid.UUID) {
	r.restaurants = append(r.restaurants, restaurantID)
}

func customerActor() identity.Actor {
	return identity.Actor{UserID: uuid.New(), Email: "asha@example.com", Role: identity.RoleCustomer}
}

func ownerActor(restaurantID uuid.UUID) identity.Actor {
	return identity.Actor{UserID: uuid.New(), Email: "owner@example.com", Role: identity.RoleRestaurantOwner, RestaurantID: &restaurantID}
}

func agentActor() identity.Actor {
	return identity.Actor{UserID: uuid.New(), Email: "rider@example.com", Role: identity.RoleDeliveryGuy}
}

func adminActor() identity.Actor {
	return identity.Actor{UserID: uuid.New(), Email: "admin@example.com", Role: identity.RoleAdmin}
}

func newTestRestaurant(t *testing.T) *catalog.Restaurant {
	t.Helper()
	r, err := catalog.NewRestaurant(uuid.New(), "Spice Route", "12 MG Road", "indian")
	require.NoError(t, err)
	return r
}

func newTestMenuItem(t *testing.T, restaurantID uuid.UUID, name string, price int64, stock int) *catalog.MenuItem {
	t.Helper()
	m, err := catalog.NewMenuItem(restaurantID, name, decimal.NewFromInt(price), stock)
	require.NoError(t, err)
	return m
}

// newConfirmedOrder builds an order the way placement leaves it
func newConfirmedOrder(t *testing.T, customerID, restaurantID uuid.UUID, items ...*catalog.MenuItem) *ordering.Order {
	t.Helper()
	lines := make([]ordering.LineItem, len(items))
	for i, m := range items {
		lines[i] = ordering.LineItem{MenuItemID: m.ID, Name: m.Name, Quantity: 2, UnitPrice: m.Price}
	}
	o, err := ordering.NewOrder(customerID, restaurantID, lines, ordering.PaymentCard)
	require.NoError(t, err)
	require.NoError(t, o.Confirm(o.CreatedAt))
	o.DiscardEvents()
	return o
}
