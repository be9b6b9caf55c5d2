package audit

import (
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusAudit(t *testing.T) {
	id := uuid.New()
	at := time.Now()
	rec, err := NewStatusAudit(EntityOrder, id, "ready", "picked_up", uuid.New(), identity.RoleDeliveryGuy, at)
	require.NoError(t, err)
	assert.Equal(t, id, rec.EntityID)
	assert.Equal(t, at, rec.OccurredAt)
	assert.NotEqual(t, uuid.Nil, rec.ID)

	_, err = NewStatusAudit("menu", id, "a", "b", uuid.New(), identity.RoleAdmin, at)
	assert.Error(t, err)
}
