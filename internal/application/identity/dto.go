package identity

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// SignupRequest is the registration body. Role defaults to customer.
type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone,omitempty" binding:"omitempty,max=20,phone"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=customer restaurant_owner delivery_guy"`
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token when it is not sent as a cookie
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	UserID            uuid.UUID
	AccessTokenJTI    string
	AccessTokenExpiry time.Duration
	RefreshToken      string
}

// SetActiveRequest is the admin body for activating or deactivating a user
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ListUsersQuery holds user listing parameters
type ListUsersQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name email role created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search" binding:"max=100"`
	Role     string `form:"role" binding:"omitempty,oneof=admin restaurant_owner delivery_guy customer"`
	Active   *bool  `form:"active"`
}

// UserInfo is the public representation of a user
type UserInfo struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Role         string     `json:"role"`
	RoleLevel    int        `json:"roleLevel"`
	RestaurantID *uuid.UUID `json:"restaurantId,omitempty"`
	Active       bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// AuthResult is returned by login and refresh
type AuthResult struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	TokenType             string    `json:"tokenType"`
	User                  UserInfo  `json:"user"`
}

// CurrentUserResult is returned by /auth/me
type CurrentUserResult struct {
	User        UserInfo `json:"user"`
	Permissions []string `json:"permissions"`
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         string(u.Role),
		RoleLevel:    u.Role.Level(),
		RestaurantID: u.RestaurantID,
		Active:       u.Active,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}
