package ordering

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/review"
)

// TransactionScope runs a unit of work atomically. If fn returns an error
// every write made through the repositories is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories hands out repositories bound to the current
// transaction. Order placement, status changes, claims, batches, reviews and
// restaurant onboarding all write through it.
type TransactionalRepositories interface {
	Orders() ordering.OrderRepository
	Payments() ordering.PaymentRepository
	MenuItems() catalog.MenuItemRepository
	Restaurants() catalog.RestaurantRepository
	Batches() delivery.BatchRepository
	Reviews() review.ReviewRepository
	Users() identity.UserRepository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Used in unit tests.
type NoOpTransactionScope struct {
	OrderRepo      ordering.OrderRepository
	PaymentRepo    ordering.PaymentRepository
	MenuItemRepo   catalog.MenuItemRepository
	RestaurantRepo catalog.RestaurantRepository
	BatchRepo      delivery.BatchRepository
	ReviewRepo     review.ReviewRepository
	UserRepo       identity.UserRepository
}

// Execute calls fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Orders() ordering.OrderRepository { return s.OrderRepo }
func (s *NoOpTransactionScope) Payments() ordering.PaymentRepository { return s.PaymentRepo }
func (s *NoOpTransactionScope) MenuItems() catalog.MenuItemRepository { return s.MenuItemRepo }
func (s *NoOpTransactionScope) Restaurants() catalog.RestaurantRepository { return s.RestaurantRepo }
func (s *NoOpTransactionScope) Batches() delivery.BatchRepository { return s.BatchRepo }
func (s *NoOpTransactionScope) Reviews() review.ReviewRepository { return s.ReviewRepo }
func (s *NoOpTransactionScope) Users() identity.UserRepository { return s.UserRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
