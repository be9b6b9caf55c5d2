package auth

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tells access and refresh tokens apart when both are signed with
// the same secret
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT payload. Refresh tokens only carry UserID; everything
// else is reloaded from the user when they are exchanged.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string        `json:"userId"`
	Email        string        `json:"email,omitempty"`
	Role         identity.Role `json:"role,omitempty"`
	RoleLevel    int           `json:"roleLevel,omitempty"`
	RestaurantID string        `json:"restaurantId,omitempty"`
	Permissions  []string      `json:"permissions,omitempty"`
	TokenType    TokenType     `json:"tokenType"`
}

func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// RestaurantUUID is nil for users without a restaurant and for malformed ids
func (c *Claims) RestaurantUUID() *uuid.UUID {
	if c.RestaurantID == "" {
		return nil
	}
	id, err := uuid.Parse(c.RestaurantID)
	if err != nil {
		return nil
	}
	return &id
}

// Actor is the caller identity handlers and services work with
func (c *Claims) Actor() (identity.Actor, error) {
	userID, err := c.UserUUID()
	if err != nil {
		return identity.Actor{}, ErrMissingUserID
	}
	if !c.Role.IsValid() {
		return identity.Actor{}, ErrInvalidRole
	}
	return identity.Actor{
		UserID:       userID,
		Email:        c.Email,
		Role:         c.Role,
		RestaurantID: c.RestaurantUUID(),
	}, nil
}

func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// RemainingTTL is how long a revocation of this token has to be kept
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
