package identity

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserFilter narrows the admin user listing. Search matches name or email.
type UserFilter struct {
	shared.Filter
	Role   *Role
	Active *bool
}

// UserRepository persists users. Email arguments are expected to be
// normalized with NormalizeEmail.
type UserRepository interface {
	// Create returns shared.ErrAlreadyExists when the email is taken
	Create(ctx context.Context, user *User) error
	// Update returns shared.ErrConcurrencyConflict on a stale version
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)
}
