package audit

import (
	"context"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Entity types recorded in the audit trail
const (
	EntityOrder = "order"
	EntityBatch = "batch"
)

// StatusAudit is one recorded status transition
type StatusAudit struct {
	ID         uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	FromStatus string
	ToStatus   string
	ActorID    uuid.UUID
	ActorRole  identity.Role
	OccurredAt time.Time
}

// NewStatusAudit builds an audit record
func NewStatusAudit(entityType string, entityID uuid.UUID, from, to string, actorID uuid.UUID, role identity.Role, at time.Time) (*StatusAudit, error) {
	if entityType != EntityOrder && entityType != EntityBatch {
		return nil, shared.NewValidationError("Unknown audit entity type: %q", entityType)
	}
	return &StatusAudit{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		ActorRole:  role,
		OccurredAt: at,
	}, nil
}

// StatusAuditRepository persists audit records
type StatusAuditRepository interface {
	Create(ctx context.Context, record *StatusAudit) error
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*StatusAudit, error)
}
