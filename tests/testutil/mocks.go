package testutil

import (
	"context"
	"time"

	"github.com/foodontracks/backend/internal/domain/audit"
	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/review"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Repository mocks share these unpackers so a test can Return(nil, err)
// without typed nils.

func single[T any](args mock.Arguments) (*T, error) {
	v, _ := args.Get(0).(*T)
	return v, args.Error(1)
}

func list[T any](args mock.Arguments) ([]*T, error) {
	v, _ := args.Get(0).([]*T)
	return v, args.Error(1)
}

func page[T any](args mock.Arguments) ([]*T, int64, error) {
	v, _ := args.Get(0).([]*T)
	total, _ := args.Get(1).(int64)
	return v, total, args.Error(2)
}

func flag(args mock.Arguments) (bool, error) {
	return args.Bool(0), args.Error(1)
}

// MockOrderRepository mocks ordering.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *ordering.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.IncrementVersion()
	}
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	return single[ordering.Order](m.Called(ctx, id))
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter ordering.OrderFilter) ([]*ordering.Order, int64, error) {
	return page[ordering.Order](m.Called(ctx, filter))
}

func (m *MockOrderRepository) ListClaimable(ctx context.Context, filter shared.Filter) ([]*ordering.Order, int64, error) {
	return page[ordering.Order](m.Called(ctx, filter))
}

func (m *MockOrderRepository) ClaimForAgent(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	return flag(m.Called(ctx, orderID, agentID))
}

func (m *MockOrderRepository) SetBatchNumber(ctx context.Context, orderID uuid.UUID, batchNumber string) error {
	return m.Called(ctx, orderID, batchNumber).Error(0)
}

// MockPaymentRepository mocks ordering.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *ordering.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *ordering.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*ordering.Payment, error) {
	return single[ordering.Payment](m.Called(ctx, orderID))
}

// MockRestaurantRepository mocks catalog.RestaurantRepository
type MockRestaurantRepository struct {
	mock.Mock
}

func (m *MockRestaurantRepository) Create(ctx context.Context, r *catalog.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRestaurantRepository) Update(ctx context.Context, r *catalog.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRestaurantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRestaurantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Restaurant, error) {
	return single[catalog.Restaurant](m.Called(ctx, id))
}

func (m *MockRestaurantRepository) FindAll(ctx context.Context, filter catalog.RestaurantFilter) ([]*catalog.Restaurant, int64, error) {
	return page[catalog.Restaurant](m.Called(ctx, filter))
}

func (m *MockRestaurantRepository) UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int) error {
	return m.Called(ctx, id, average, count).Error(0)
}

// MockMenuItemRepository mocks catalog.MenuItemRepository
type MockMenuItemRepository struct {
	mock.Mock
}

func (m *MockMenuItemRepository) Create(ctx context.Context, item *catalog.MenuItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockMenuItemRepository) Update(ctx context.Context, item *catalog.MenuItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockMenuItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMenuItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	return single[catalog.MenuItem](m.Called(ctx, id))
}

func (m *MockMenuItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.MenuItem, error) {
	return list[catalog.MenuItem](m.Called(ctx, ids))
}

func (m *MockMenuItemRepository) FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.MenuItem, error) {
	return list[catalog.MenuItem](m.Called(ctx, restaurantID))
}

func (m *MockMenuItemRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	return flag(m.Called(ctx, id, quantity))
}

func (m *MockMenuItemRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

// MockBatchRepository mocks delivery.BatchRepository
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) Create(ctx context.Context, batch *delivery.Batch) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *MockBatchRepository) Update(ctx context.Context, batch *delivery.Batch) error {
	args := m.Called(ctx, batch)
	if args.Error(0) == nil {
		batch.IncrementVersion()
	}
	return args.Error(0)
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Batch, error) {
	return single[delivery.Batch](m.Called(ctx, id))
}

func (m *MockBatchRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*delivery.Batch, error) {
	return single[delivery.Batch](m.Called(ctx, orderID))
}

func (m *MockBatchRepository) FindByBatchNumber(ctx context.Context, batchNumber string) (*delivery.Batch, error) {
	return single[delivery.Batch](m.Called(ctx, batchNumber))
}

func (m *MockBatchRepository) FindByAgent(ctx context.Context, agentID uuid.UUID, filter shared.Filter) ([]*delivery.Batch, int64, error) {
	return page[delivery.Batch](m.Called(ctx, agentID, filter))
}

func (m *MockBatchRepository) AssignUnassigned(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	return flag(m.Called(ctx, orderID, agentID))
}

// MockReviewRepository mocks review.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, r *review.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	return single[review.Review](m.Called(ctx, id))
}

func (m *MockReviewRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return flag(m.Called(ctx, orderID))
}

func (m *MockReviewRepository) FindByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter shared.Filter) ([]*review.Review, int64, error) {
	return page[review.Review](m.Called(ctx, restaurantID, filter))
}

func (m *MockReviewRepository) SummarizeRestaurant(ctx context.Context, restaurantID uuid.UUID) (review.RatingSummary, error) {
	args := m.Called(ctx, restaurantID)
	return args.Get(0).(review.RatingSummary), args.Error(1)
}

// MockUserRepository mocks identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return single[identity.User](m.Called(ctx, id))
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return single[identity.User](m.Called(ctx, email))
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return flag(m.Called(ctx, email))
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	return page[identity.User](m.Called(ctx, filter))
}

// MockStatusAuditRepository mocks audit.StatusAuditRepository
type MockStatusAuditRepository struct {
	mock.Mock
}

func (m *MockStatusAuditRepository) Create(ctx context.Context, record *audit.StatusAudit) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockStatusAuditRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*audit.StatusAudit, error) {
	return list[audit.StatusAudit](m.Called(ctx, entityType, entityID))
}

// MockIdempotencyStore mocks shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return flag(m.Called(ctx, key, ttl))
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	return flag(m.Called(ctx, key))
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return nil
}

var (
	_ ordering.OrderRepository     = (*MockOrderRepository)(nil)
	_ ordering.PaymentRepository   = (*MockPaymentRepository)(nil)
	_ catalog.RestaurantRepository = (*MockRestaurantRepository)(nil)
	_ catalog.MenuItemRepository   = (*MockMenuItemRepository)(nil)
	_ delivery.BatchRepository     = (*MockBatchRepository)(nil)
	_ review.ReviewRepository      = (*MockReviewRepository)(nil)
	_ identity.UserRepository      = (*MockUserRepository)(nil)
	_ audit.StatusAuditRepository  = (*MockStatusAuditRepository)(nil)
	_ shared.IdempotencyStore      = (*MockIdempotencyStore)(nil)
)
