package identity

import (
	"context"
	"errors"
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles administrative user management
type UserService struct {
	userRepo      identity.UserRepository
	revoked       auth.RevocationStore
	revocationTTL time.Duration
	logger        *zap.Logger
}

// NewUserService creates a new user service. revocationTTL should cover the
// longest token lifetime so that a deactivated user's refresh tokens die too.
func NewUserService(
	userRepo identity.UserRepository,
	revoked auth.RevocationStore,
	revocationTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		revoked:       revoked,
		revocationTTL: revocationTTL,
		logger:        logger,
	}
}

// ListUsers lists users for administrators
func (s *UserService) ListUsers(ctx context.Context, q ListUsersQuery) (*shared.Paginated[UserInfo], error) {
	filter := identity.UserFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  q.OrderBy,
			OrderDir: q.OrderDir,
			Search:   q.Search,
		},
		Active: q.Active,
	}
	if q.Role != "" {
		role, err := identity.ParseRole(q.Role)
		if err != nil {
			return nil, err
		}
		filter.Role = &role
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, err
	}

	items := make([]UserInfo, len(users))
	for i, u := range users {
		items[i] = ToUserInfo(u)
	}
	f := filter.Normalize()
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// GetUser returns one user
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*UserInfo, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// SetActive activates or deactivates an account. Deactivation revokes every
// token issued to the user so far. Administrators cannot deactivate
// themselves.
func (s *UserService) SetActive(ctx context.Context, actor identity.Actor, id uuid.UUID, active bool) (*UserInfo, error) {
	if !active && actor.UserID == id {
		return nil, shared.NewValidationError("Administrators cannot deactivate their own account")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Active == active {
		info := ToUserInfo(user)
		return &info, nil
	}

	if active {
		user.Activate()
	} else {
		user.Deactivate()
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user status", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}

	if !active && s.revoked != nil {
		if err := s.revoked.RevokeUser(ctx, id.String(), s.revocationTTL); err != nil {
			s.logger.Error("Failed to revoke tokens of deactivated user", zap.String("user_id", id.String()), zap.Error(err))
		}
	}

	s.logger.Info("User status changed",
		zap.String("user_id", id.String()),
		zap.Bool("active", active),
		zap.String("changed_by", actor.UserID.String()))

	info := ToUserInfo(user)
	return &info, nil
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("User")
		}
		return nil, err
	}
	return user, nil
}
