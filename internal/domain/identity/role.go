package identity

import (
	"sort"
	"strings"

	"github.com/foodontracks/backend/internal/domain/shared"
)

// Role is one of the four fixed business roles
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleRestaurantOwner Role = "restaurant_owner"
	RoleDeliveryGuy     Role = "delivery_guy"
	RoleCustomer        Role = "customer"
)

// AllRoles lists every role from most to least privileged
var AllRoles = []Role{RoleAdmin, RoleRestaurantOwner, RoleDeliveryGuy, RoleCustomer}

// ParseRole converts a string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Unknown role: "+s)
	}
	return r, nil
}

// IsValid reports whether r is one of the fixed roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleRestaurantOwner, RoleDeliveryGuy, RoleCustomer:
		return true
	}
	return false
}

// Level returns the coarse privilege level (Admin=4 ... Customer=1, unknown=0).
// Levels never grant permissions; use Allows for authorization.
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 4
	case RoleRestaurantOwner:
		return 3
	case RoleDeliveryGuy:
		return 2
	case RoleCustomer:
		return 1
	}
	return 0
}

// AtLeast compares privilege levels
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level() && r.Level() > 0
}

func (r Role) String() string {
	return string(r)
}

// Resource is a protected resource family
type Resource string

const (
	ResourceUsers       Resource = "users"
	ResourceRestaurants Resource = "restaurants"
	ResourceMenu        Resource = "menu"
	ResourceOrders      Resource = "orders"
	ResourcePayments    Resource = "payments"
	ResourceReviews     Resource = "reviews"
	ResourceBatches     Resource = "batches"
	ResourceAudit       Resource = "audit"
)

// Action is an operation on a resource
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionClaim  Action = "claim"
	ActionUpload Action = "upload"
)

// Permission is a (resource, action) pair written resource:action
type Permission struct {
	Resource Resource
	Action   Action
}

// NewPermission builds a permission
func NewPermission(resource Resource, action Action) Permission {
	return Permission{Resource: resource, Action: action}
}

// ParsePermission parses "resource:action"
func ParsePermission(s string) (Permission, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Permission{}, shared.NewDomainError("INVALID_PERMISSION", "Permission must be resource:action")
	}
	return Permission{Resource: Resource(parts[0]), Action: Action(parts[1])}, nil
}

func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

func perms(resource Resource, actions ...Action) []Permission {
	out := make([]Permission, 0, len(actions))
	for _, a := range actions {
		out = append(out, Permission{Resource: resource, Action: a})
	}
	return out
}

func grant(groups ...[]Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{})
	for _, g := range groups {
		for _, p := range g {
			m[p] = struct{}{}
		}
	}
	return m
}

// rolePermissions is the explicit allow-list; anything absent is denied.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleAdmin: grant(
		perms(ResourceUsers, ActionRead, ActionUpdate),
		perms(ResourceRestaurants, ActionCreate, ActionRead, ActionUpdate, ActionDelete),
		perms(ResourceMenu, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionUpload),
		perms(ResourceOrders, ActionRead, ActionUpdate),
		perms(ResourcePayments, ActionRead),
		perms(ResourceReviews, ActionRead, ActionDelete),
		perms(ResourceBatches, ActionCreate, ActionRead, ActionUpdate),
		perms(ResourceAudit, ActionRead),
	),
	RoleRestaurantOwner: grant(
		perms(ResourceRestaurants, ActionCreate, ActionRead, ActionUpdate),
		perms(ResourceMenu, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionUpload),
		perms(ResourceOrders, ActionRead, ActionUpdate),
		perms(ResourcePayments, ActionRead),
		perms(ResourceReviews, ActionRead),
		perms(ResourceBatches, ActionCreate, ActionRead, ActionUpdate),
	),
	RoleDeliveryGuy: grant(
		perms(ResourceRestaurants, ActionRead),
		perms(ResourceMenu, ActionRead),
		perms(ResourceOrders, ActionRead, ActionUpdate, ActionClaim),
		perms(ResourceBatches, ActionRead, ActionUpdate),
	),
	RoleCustomer: grant(
		perms(ResourceRestaurants, ActionRead),
		perms(ResourceMenu, ActionRead),
		perms(ResourceOrders, ActionCreate, ActionRead, ActionUpdate),
		perms(ResourcePayments, ActionRead),
		perms(ResourceReviews, ActionCreate, ActionRead),
	),
}

// Allows reports whether role holds permission. Unknown roles hold nothing.
func Allows(role Role, permission Permission) bool {
	granted, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = granted[permission]
	return ok
}

// PermissionsFor returns the sorted permission codes granted to role
func PermissionsFor(role Role) []string {
	granted := rolePermissions[role]
	out := make([]string, 0, len(granted))
	for p := range granted {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}
