package persistence

import (
	"context"
	"time"

	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// claimableStatuses are the states in which an unassigned order may be claimed
var claimableStatuses = []string{
	string(ordering.StatusConfirmed),
	string(ordering.StatusPreparing),
	string(ordering.StatusReady),
}

// GormOrderRepository implements ordering.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts an order
func (r *GormOrderRepository) Create(ctx context.Context, order *ordering.Order) error {
	model := models.OrderModelFromDomain(order)
	return translateError("order.create", r.db.WithContext(ctx).Create(model).Error)
}

// Update writes the mutable order fields guarded by the version column
func (r *GormOrderRepository) Update(ctx context.Context, order *ordering.Order) error {
	err := updateVersioned(ctx, r.db, &models.OrderModel{}, "order.update", order.ID, order.Version, map[string]any{
		"status":            string(order.Status),
		"payment_status":    string(order.PaymentStatus),
		"timeline":          models.Timeline(order.Timeline),
		"batch_number":      order.BatchNumber,
		"delivery_agent_id": order.DeliveryAgentID,
		"notes":             order.Notes,
	})
	if err != nil {
		return err
	}
	order.IncrementVersion()
	return nil
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("order.find", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders within the filter's ownership scope
func (r *GormOrderRepository) FindAll(ctx context.Context, filter ordering.OrderFilter) ([]*ordering.Order, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.RestaurantID != nil {
		query = query.Where("restaurant_id = ?", *filter.RestaurantID)
	}
	if filter.DeliveryAgentID != nil {
		query = query.Where("delivery_agent_id = ?", *filter.DeliveryAgentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if f.Search != "" {
		query = query.Where(`order_number LIKE ? ESCAPE '\'`, containsPattern(f.Search))
	}

	return r.list(query, f, "order.list")
}

// ListClaimable returns unassigned orders that a delivery agent may claim
func (r *GormOrderRepository) ListClaimable(ctx context.Context, filter shared.Filter) ([]*ordering.Order, int64, error) {
	f := filter.Normalize()
	if f.OrderBy == "" || f.OrderBy == "created_at" {
		f.OrderDir = "asc"
	}
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("delivery_agent_id IS NULL AND status IN ?", claimableStatuses)
	return r.list(query, f, "order.list_claimable")
}

func (r *GormOrderRepository) list(query *gorm.DB, f shared.Filter, op string) ([]*ordering.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(op, err)
	}
	var rows []*models.OrderModel
	if err := query.
		Order(orderSort.clause(f.OrderBy, f.OrderDir)).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(op, err)
	}
	orders := make([]*ordering.Order, len(rows))
	for i, m := range rows {
		orders[i] = m.ToDomain()
	}
	return orders, total, nil
}

// ClaimForAgent is a compare-and-swap on delivery_agent_id. Of two agents
// racing for the same order exactly one sees a row updated.
func (r *GormOrderRepository) ClaimForAgent(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND delivery_agent_id IS NULL AND status IN ?", orderID, claimableStatuses).
		Updates(map[string]any{
			"delivery_agent_id": agentID,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return false, translateError("order.claim", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// SetBatchNumber records the tracking number on the order
func (r *GormOrderRepository) SetBatchNumber(ctx context.Context, orderID uuid.UUID, batchNumber string) error {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"batch_number": batchNumber,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError("order.set_batch_number", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ ordering.OrderRepository = (*GormOrderRepository)(nil)

// GormPaymentRepository implements ordering.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *ordering.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return translateError("payment.create", r.db.WithContext(ctx).Create(model).Error)
}

// Update saves a payment
func (r *GormPaymentRepository) Update(ctx context.Context, payment *ordering.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return translateError("payment.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByOrderID finds the payment for an order
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*ordering.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error; err != nil {
		return nil, translateError("payment.find", err)
	}
	return model.ToDomain(), nil
}

var _ ordering.PaymentRepository = (*GormPaymentRepository)(nil)
