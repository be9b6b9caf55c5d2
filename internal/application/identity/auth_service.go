package identity

import (
	"context"
	"errors"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/auth"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Authentication error codes
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountDisabled    = shared.NewDomainError("ACCOUNT_DISABLED", "Account has been disabled")
	ErrTokenExpired       = shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	ErrTokenInvalid       = shared.NewDomainError("INVALID_TOKEN", "Invalid token")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
)

// AuthService handles signup, login and the token lifecycle
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	revoked    auth.RevocationStore
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revoked auth.RevocationStore,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		revoked:    revoked,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for UserRegistered events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Signup registers a new account. Admin accounts are only created by seeding.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*UserInfo, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "Signup")
	defer span.End()

	role := identity.RoleCustomer
	if req.Role != "" {
		parsed, err := identity.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}
	if role == identity.RoleAdmin {
		return nil, shared.NewDomainError("INVALID_ROLE", "Admin accounts cannot be created through signup")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("Email is already registered")
	}

	user, err := identity.NewUser(req.Name, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" {
		if err := user.SetPhone(req.Phone); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewConflictError("Email is already registered")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	events := user.TakeEvents()
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish user events", zap.Error(err))
		}
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	info := ToUserInfo(user)
	return &info, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error; a disabled account is only revealed to a
// caller who knows the password.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "Login")
	defer span.End()

	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			identity.RejectUnknownUser(req.Password)
			s.logger.Info("Login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !user.VerifyPassword(req.Password) {
		s.logger.Info("Login failed: wrong password", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		s.logger.Warn("Login attempt for disabled account", zap.String("user_id", user.ID.String()))
		return nil, ErrAccountDisabled
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	result.User = ToUserInfo(user)

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	return result, nil
}

// Refresh exchanges a refresh token for a new pair. The user is reloaded so
// that role changes and deactivation take effect; the old refresh token is
// revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "Refresh")
	defer span.End()

	if refreshToken == "" {
		return nil, ErrTokenInvalid
	}
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Info("Refresh token rejected", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if revoked, err := s.isRevoked(ctx, claims); err != nil {
		return nil, err
	} else if revoked {
		return nil, ErrTokenRevoked
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	result.User = ToUserInfo(user)

	if s.revoked != nil {
		if err := s.revoked.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			s.logger.Error("Failed to revoke used refresh token", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Token refreshed", zap.String("user_id", user.ID.String()))
	return result, nil
}

// Logout revokes the access token and, when present, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.revoked == nil {
		return nil
	}
	if input.AccessTokenJTI != "" && input.AccessTokenExpiry > 0 {
		if err := s.revoked.Revoke(ctx, input.AccessTokenJTI, input.AccessTokenExpiry); err != nil {
			s.logger.Error("Failed to revoke access token", zap.String("user_id", input.UserID.String()), zap.Error(err))
			return shared.NewPersistenceError("auth.logout", err)
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.UserID.String() {
			if err := s.revoked.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				s.logger.Warn("Failed to revoke refresh token", zap.Error(err))
			}
		}
	}

	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// Me returns the authenticated user and the permissions of their role
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*CurrentUserResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("User")
		}
		return nil, err
	}
	return &CurrentUserResult{
		User:        ToUserInfo(user),
		Permissions: identity.PermissionsFor(user.Role),
	}, nil
}

func (s *AuthService) issue(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// isRevoked checks the token id and the per-user cutoff
func (s *AuthService) isRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if s.revoked == nil {
		return false, nil
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.Ref())
	if err != nil {
		return false, shared.NewPersistenceError("auth.revocation", err)
	}
	return revoked, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, auth.ErrTokenRevoked):
		return ErrTokenRevoked
	default:
		return ErrTokenInvalid
	}
}
