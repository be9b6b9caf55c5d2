package identity

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated caller decoded from a session credential
type Actor struct {
	UserID       uuid.UUID
	Email        string
	Role         Role
	RestaurantID *uuid.UUID
}

// Can reports whether the actor's role holds permission
func (a Actor) Can(permission Permission) bool {
	return Allows(a.Role, permission)
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// OwnsRestaurant reports whether the actor manages restaurantID
func (a Actor) OwnsRestaurant(restaurantID uuid.UUID) bool {
	return a.Role == RoleRestaurantOwner && a.RestaurantID != nil && *a.RestaurantID == restaurantID
}

type actorKey struct{}

// WithActor attaches the actor to ctx
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor attached by the auth middleware
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
