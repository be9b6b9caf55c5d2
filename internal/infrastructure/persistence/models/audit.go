package models

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/audit"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// StatusAuditModel is the persistence model for StatusAudit. Rows are append-only.
type StatusAuditModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityType string    `gorm:"type:varchar(16);not null;index:idx_status_audits_entity,priority:1"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_status_audits_entity,priority:2"`
	FromStatus string    `gorm:"type:varchar(32);not null"`
	ToStatus   string    `gorm:"type:varchar(32);not null"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null"`
	ActorRole  string    `gorm:"type:varchar(32);not null"`
	OccurredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusAuditModel) TableName() string {
	return "status_audits"
}

// ToDomain converts the persistence model to a domain StatusAudit
func (m *StatusAuditModel) ToDomain() *audit.StatusAudit {
	return &audit.StatusAudit{
		ID:         m.ID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		ActorID:    m.ActorID,
		ActorRole:  identity.Role(m.ActorRole),
		OccurredAt: m.OccurredAt,
	}
}

// StatusAuditModelFromDomain creates a persistence model from a domain StatusAudit
func StatusAuditModelFromDomain(a *audit.StatusAudit) *StatusAuditModel {
	return &StatusAuditModel{
		ID:         a.ID,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		FromStatus: a.FromStatus,
		ToStatus:   a.ToStatus,
		ActorID:    a.ActorID,
		ActorRole:  string(a.ActorRole),
		OccurredAt: a.OccurredAt,
	}
}
