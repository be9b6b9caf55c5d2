package persistence

import (
	"context"

	appordering "github.com/foodontracks/backend/internal/application/ordering"
	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/review"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to fn shares one *gorm.DB transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in a transaction. A returned error or a panic rolls back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appordering.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError("transaction", err)
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Orders() ordering.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Payments() ordering.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) MenuItems() catalog.MenuItemRepository {
	return NewGormMenuItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) Restaurants() catalog.RestaurantRepository {
	return NewGormRestaurantRepository(r.tx)
}

func (r *gormTransactionalRepositories) Batches() delivery.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) Reviews() review.ReviewRepository {
	return NewGormReviewRepository(r.tx)
}

func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

var (
	_ appordering.TransactionScope          = (*GormTransactionScope)(nil)
	_ appordering.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
