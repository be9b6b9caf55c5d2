package audit

import (
	"context"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/audit"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StatusAuditResponse is one audit row
type StatusAuditResponse struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   uuid.UUID `json:"entityId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    uuid.UUID `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	OccurredAt time.Time `json:"occurredAt"`
}

// QueryService reads the audit trail. Admin only.
type QueryService struct {
	repo audit.StatusAuditRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(repo audit.StatusAuditRepository) *QueryService {
	return &QueryService{repo: repo}
}

// ListByEntity returns the transitions of one order or batch, oldest first
func (s *QueryService) ListByEntity(ctx context.Context, actor identity.Actor, entityType string, entityID uuid.UUID) ([]StatusAuditResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	entityType = strings.ToLower(strings.TrimSpace(entityType))
	if entityType != audit.EntityOrder && entityType != audit.EntityBatch {
		return nil, shared.NewValidationError("Entity type must be %q or %q", audit.EntityOrder, audit.EntityBatch)
	}

	records, err := s.repo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]StatusAuditResponse, len(records))
	for i, r := range records {
		out[i] = StatusAuditResponse{
			ID:         r.ID,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			FromStatus: r.FromStatus,
			ToStatus:   r.ToStatus,
			ActorID:    r.ActorID,
			ActorRole:  string(r.ActorRole),
			OccurredAt: r.OccurredAt,
		}
	}
	return out, nil
}
