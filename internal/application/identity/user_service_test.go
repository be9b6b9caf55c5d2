package identity

import (
	"context"
	"testing"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/auth"
	"github.com/foodontracks/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserService_ListUsers(t *testing.T) {
	ctx := context.Background()
	userRepo := new(testutil.MockUserRepository)
	svc := NewUserService(userRepo, nil, time.Hour, zap.NewNop())

	user := createTestUser(t, identity.RoleDeliveryGuy)
	userRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f identity.UserFilter) bool {
		return f.Role != nil && *f.Role == identity.RoleDeliveryGuy
	})).Return([]*identity.User{user}, int64(1), nil)

	page, err := svc.ListUsers(ctx, ListUsersQuery{Role: "delivery_guy", PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 10, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "delivery_guy", page.Items[0].Role)
	userRepo.AssertExpectations(t)
}

func TestUserService_SetActive(t *testing.T) {
	ctx := context.Background()
	admin := identity.Actor{UserID: uuid.New(), Role: identity.RoleAdmin}

	t.Run("deactivation revokes existing tokens", func(t *testing.T) {
		userRepo := new(testutil.MockUserRepository)
		revocations := auth.NewMemoryRevocationStore()
		svc := NewUserService(userRepo, revocations, time.Hour, zap.NewNop())

		user := createTestUser(t, identity.RoleCustomer)
		userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		userRepo.On("Update", mock.Anything, user).Return(nil)
		issuedBefore := time.Now().Add(-time.Minute)

		info, err := svc.SetActive(ctx, admin, user.ID, false)

		require.NoError(t, err)
		assert.False(t, info.Active)
		invalidated, err := revocations.IsRevoked(ctx, auth.TokenRef{UserID: user.ID.String(), IssuedAt: issuedBefore})
		require.NoError(t, err)
		assert.True(t, invalidated)
		userRepo.AssertExpectations(t)
	})

	t.Run("reactivation", func(t *testing.T) {
		userRepo := new(testutil.MockUserRepository)
		svc := NewUserService(userRepo, nil, time.Hour, zap.NewNop())
		user := createTestUser(t, identity.RoleCustomer)
		user.Deactivate()
		userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		userRepo.On("Update", mock.Anything, user).Return(nil)

		info, err := svc.SetActive(ctx, admin, user.ID, true)

		require.NoError(t, err)
		assert.True(t, info.Active)
	})

	t.Run("no change skips the write", func(t *testing.T) {
		userRepo := new(testutil.MockUserRepository)
		svc := NewUserService(userRepo, nil, time.Hour, zap.NewNop())
		user := createTestUser(t, identity.RoleCustomer)
		userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		_, err := svc.SetActive(ctx, admin, user.ID, true)

		require.NoError(t, err)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("admin cannot deactivate self", func(t *testing.T) {
		svc := NewUserService(new(testutil.MockUserRepository), nil, time.Hour, zap.NewNop())

		_, err := svc.SetActive(ctx, admin, admin.UserID, false)

		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("missing user", func(t *testing.T) {
		userRepo := new(testutil.MockUserRepository)
		svc := NewUserService(userRepo, nil, time.Hour, zap.NewNop())
		id := uuid.New()
		userRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.SetActive(ctx, admin, id, false)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
