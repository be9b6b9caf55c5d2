package identity

import (
	"github.com/foodontracks/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type for user events
const AggregateTypeUser = "User"

// EventTypeUserRegistered is raised when an account is created
const EventTypeUserRegistered = "UserRegistered"

// UserRegisteredEvent is published when a user signs up or is seeded
type UserRegisteredEvent struct {
	shared.EventMeta
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		EventMeta: shared.NewEventMeta(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Email:           user.Email,
		Role:            user.Role,
	}
}
