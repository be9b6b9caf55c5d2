package persistence

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/audit"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStatusAuditRepository implements audit.StatusAuditRepository using GORM
type GormStatusAuditRepository struct {
	db *gorm.DB
}

// NewGormStatusAuditRepository creates a new GormStatusAuditRepository
func NewGormStatusAuditRepository(db *gorm.DB) *GormStatusAuditRepository {
	return &GormStatusAuditRepository{db: db}
}

// Create appends an audit record
func (r *GormStatusAuditRepository) Create(ctx context.Context, record *audit.StatusAudit) error {
	model := models.StatusAuditModelFromDomain(record)
	return translateError("status_audit.create", r.db.WithContext(ctx).Create(model).Error)
}

// FindByEntity returns an entity's audit trail in chronological order
func (r *GormStatusAuditRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*audit.StatusAudit, error) {
	var rows []*models.StatusAuditModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("status_audit.list", err)
	}
	records := make([]*audit.StatusAudit, len(rows))
	for i, m := range rows {
		records[i] = m.ToDomain()
	}
	return records, nil
}

var _ audit.StatusAuditRepository = (*GormStatusAuditRepository)(nil)
