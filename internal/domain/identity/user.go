package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = bcrypt.DefaultCost

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterRegex = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberRegex = regexp.MustCompile(`[0-9]`)
)

// User is an account holder. Users are deactivated, never hard-deleted.
type User struct {
	shared.BaseAggregateRoot
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	RestaurantID *uuid.UUID
	Active       bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(name, email, password string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError("Name cannot exceed 100 characters")
	}
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		Active:            true,
	}
	u.Record(NewUserRegisteredEvent(u))
	return u, nil
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// decoyHash is compared against when no account matches a login, so both
// outcomes cost one bcrypt comparison
var decoyHash, _ = bcrypt.GenerateFromPassword([]byte("foodontracks-decoy-password"), bcryptCost)

// RejectUnknownUser spends the same work as VerifyPassword and always fails
func RejectUnknownUser(password string) bool {
	_ = bcrypt.CompareHashAndPassword(decoyHash, []byte(password))
	return false
}

// SetPhone sets the user's phone number
func (u *User) SetPhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewValidationError("Phone cannot exceed 50 characters")
	}
	u.Phone = strings.TrimSpace(phone)
	u.Touch()
	return nil
}

// LinkRestaurant links a restaurant owner to the restaurant they manage
func (u *User) LinkRestaurant(restaurantID uuid.UUID) error {
	if u.Role != RoleRestaurantOwner {
		return shared.NewDomainError("INVALID_ROLE", "Only restaurant owners can be linked to a restaurant")
	}
	u.RestaurantID = &restaurantID
	u.Touch()
	return nil
}

// UnlinkRestaurant clears the managed restaurant
func (u *User) UnlinkRestaurant() {
	if u.RestaurantID == nil {
		return
	}
	u.RestaurantID = nil
	u.Touch()
}

// Activate re-enables login
func (u *User) Activate() {
	u.Active = true
	u.Touch()
}

// Deactivate soft-deletes the account
func (u *User) Deactivate() {
	u.Active = false
	u.Touch()
}

// RecordLogin stamps a successful login
func (u *User) RecordLogin() {
	now := shared.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Actor returns the authenticated identity for this user
func (u *User) Actor() Actor {
	return Actor{
		UserID:       u.ID,
		Email:        u.Email,
		Role:         u.Role,
		RestaurantID: u.RestaurantID,
	}
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewValidationError("Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewValidationError("Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError("Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("Password cannot exceed 72 characters")
	}
	if !hasLetterRegex.MatchString(password) || !hasNumberRegex.MatchString(password) {
		return shared.NewValidationError("Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
