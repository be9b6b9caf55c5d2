package persistence

import (
	"context"
	"time"

	"github.com/foodontracks/backend/internal/domain/delivery"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBatchRepository implements delivery.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Create inserts a batch
func (r *GormBatchRepository) Create(ctx context.Context, batch *delivery.Batch) error {
	model := models.BatchModelFromDomain(batch)
	return translateError("batch.create", r.db.WithContext(ctx).Create(model).Error)
}

// Update writes the batch guarded by the version column
func (r *GormBatchRepository) Update(ctx context.Context, batch *delivery.Batch) error {
	err := updateVersioned(ctx, r.db, &models.BatchModel{}, "batch.update", batch.ID, batch.Version, map[string]any{
		"status":            string(batch.Status),
		"delivery_agent_id": batch.DeliveryAgentID,
		"notes":             batch.Notes,
		"assigned_at":       batch.AssignedAt,
		"picked_up_at":      batch.PickedUpAt,
		"in_transit_at":     batch.InTransitAt,
		"delivered_at":      batch.DeliveredAt,
		"failed_at":         batch.FailedAt,
		"cancelled_at":      batch.CancelledAt,
	})
	if err != nil {
		return err
	}
	batch.IncrementVersion()
	return nil
}

func (r *GormBatchRepository) findOne(ctx context.Context, op, query string, arg any) (*delivery.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		return nil, translateError(op, err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a batch by ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Batch, error) {
	return r.findOne(ctx, "batch.find", "id = ?", id)
}

// FindByOrderID finds the batch carrying an order
func (r *GormBatchRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*delivery.Batch, error) {
	return r.findOne(ctx, "batch.find_by_order", "order_id = ?", orderID)
}

// FindByBatchNumber finds a batch by its tracking number
func (r *GormBatchRepository) FindByBatchNumber(ctx context.Context, batchNumber string) (*delivery.Batch, error) {
	return r.findOne(ctx, "batch.find_by_number", "batch_number = ?", batchNumber)
}

// FindByAgent lists an agent's batches, newest first unless the filter sorts otherwise
func (r *GormBatchRepository) FindByAgent(ctx context.Context, agentID uuid.UUID, filter shared.Filter) ([]*delivery.Batch, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.BatchModel{}).Where("delivery_agent_id = ?", agentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("batch.count", err)
	}
	var rows []*models.BatchModel
	if err := query.Order(batchSort.clause(f.OrderBy, f.OrderDir)).Offset(f.Offset()).Limit(f.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, translateError("batch.list", err)
	}
	batches := make([]*delivery.Batch, len(rows))
	for i, m := range rows {
		batches[i] = m.ToDomain()
	}
	return batches, total, nil
}

// AssignUnassigned hands a created batch to the claiming agent
func (r *GormBatchRepository) AssignUnassigned(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.BatchModel{}).
		Where("order_id = ? AND delivery_agent_id IS NULL AND status = ?", orderID, string(delivery.BatchCreated)).
		Updates(map[string]any{
			"delivery_agent_id": agentID,
			"status":            string(delivery.BatchAssigned),
			"assigned_at":       now,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        now,
		})
	if result.Error != nil {
		return false, translateError("batch.assign", result.Error)
	}
	return result.RowsAffected == 1, nil
}

var _ delivery.BatchRepository = (*GormBatchRepository)(nil)
