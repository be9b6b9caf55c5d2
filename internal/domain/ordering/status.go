package ordering

import (
	"fmt"
	"strings"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
)

// Status is the order lifecycle state
type Status string

const (
	StatusPending          Status = "pending"
	StatusConfirmed        Status = "confirmed"
	StatusPreparing        Status = "preparing"
	StatusReady            Status = "ready"
	StatusPickedUp         Status = "picked_up"
	StatusPickedByDelivery Status = "picked_by_delivery"
	StatusOutForDelivery   Status = "out_for_delivery"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
)

// AllStatuses lists statuses in lifecycle order
var AllStatuses = []Status{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
	StatusPickedUp, StatusPickedByDelivery, StatusOutForDelivery,
	StatusDelivered, StatusCancelled,
}

// ParseStatus parses a status string case-insensitively
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewValidationError("Unknown order status: %q", s)
	}
	return st, nil
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsClaimable reports whether a delivery agent may still claim an order in s
func (s Status) IsClaimable() bool {
	return s == StatusConfirmed || s == StatusPreparing || s == StatusReady
}

// statusTable is the role-independent from -> allowed-to table
var statusTable = map[Status][]Status{
	StatusPending:          {StatusConfirmed, StatusCancelled},
	StatusConfirmed:        {StatusPreparing, StatusCancelled},
	StatusPreparing:        {StatusReady, StatusCancelled},
	StatusReady:            {StatusPickedUp, StatusPickedByDelivery, StatusOutForDelivery, StatusCancelled},
	StatusPickedUp:         {StatusOutForDelivery, StatusCancelled},
	StatusPickedByDelivery: {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery:   {StatusDelivered, StatusCancelled},
	StatusDelivered:        {},
	StatusCancelled:        {},
}

// NextStatuses returns the statuses reachable from s ignoring roles
func (s Status) NextStatuses() []Status {
	return statusTable[s]
}

// CanTransitionTo checks the role-independent table
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range statusTable[s] {
		if next == to {
			return true
		}
	}
	return false
}

// roleRule lists the target statuses a role may request. onlyFrom further
// restricts the source state for a given target.
type roleRule struct {
	targets  []Status
	onlyFrom map[Status][]Status
}

var roleRules = map[identity.Role]roleRule{
	identity.RoleCustomer: {
		targets:  []Status{StatusCancelled},
		onlyFrom: map[Status][]Status{StatusCancelled: {StatusPending}},
	},
	identity.RoleRestaurantOwner: {
		targets: []Status{StatusConfirmed, StatusPreparing, StatusReady, StatusCancelled},
	},
	identity.RoleDeliveryGuy: {
		targets: []Status{StatusPickedUp, StatusPickedByDelivery, StatusOutForDelivery, StatusDelivered},
	},
	identity.RoleAdmin: {
		targets: []Status{
			StatusConfirmed, StatusPreparing, StatusReady, StatusPickedUp, StatusPickedByDelivery,
			StatusOutForDelivery, StatusDelivered, StatusCancelled,
		},
	},
}

// RoleAllows checks the role allow-list for from -> to
func RoleAllows(role identity.Role, from, to Status) bool {
	rule, ok := roleRules[role]
	if !ok || !containsStatus(rule.targets, to) {
		return false
	}
	if sources, restricted := rule.onlyFrom[to]; restricted {
		return containsStatus(sources, from)
	}
	return true
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ForbiddenTransitionError is returned when a status change fails the role
// allow-list (FORBIDDEN_TRANSITION) or the state table (INVALID_TRANSITION)
type ForbiddenTransitionError struct {
	*shared.DomainError
	Entity string
	From   string
	To     string
	Role   identity.Role
}

// Unwrap exposes the domain error for code-based handling
func (e *ForbiddenTransitionError) Unwrap() error {
	return e.DomainError
}

// RoleDenied reports whether the role check, not the state table, failed
func (e *ForbiddenTransitionError) RoleDenied() bool {
	return e.Code == CodeForbiddenTransition
}

// Transition error codes
const (
	CodeForbiddenTransition = "FORBIDDEN_TRANSITION"
	CodeInvalidTransition   = "INVALID_TRANSITION"
)

// NewRoleTransitionError builds the error for a role allow-list failure
func NewRoleTransitionError(entity string, role identity.Role, from, to string) *ForbiddenTransitionError {
	return &ForbiddenTransitionError{
		DomainError: shared.NewDomainError(CodeForbiddenTransition,
			fmt.Sprintf("Role %s may not move %s from %s to %s", role, entity, from, to)),
		Entity: entity, From: from, To: to, Role: role,
	}
}

// NewTableTransitionError builds the error for a state table failure
func NewTableTransitionError(entity string, role identity.Role, from, to string, allowed []string) *ForbiddenTransitionError {
	next := "none (terminal state)"
	if len(allowed) > 0 {
		next = strings.Join(allowed, ", ")
	}
	return &ForbiddenTransitionError{
		DomainError: shared.NewDomainError(CodeInvalidTransition,
			fmt.Sprintf("Cannot move %s from %s to %s; allowed next: %s", entity, from, to, next)),
		Entity: entity, From: from, To: to, Role: role,
	}
}

// CheckTransition applies both checks. The role check is reported first so
// a role that may never set the target gets FORBIDDEN_TRANSITION in any state.
func CheckTransition(role identity.Role, from, to Status) error {
	if !to.IsValid() {
		return shared.NewValidationError("Unknown order status: %q", to)
	}
	if !RoleAllows(role, from, to) {
		return NewRoleTransitionError("order", role, string(from), string(to))
	}
	if !from.CanTransitionTo(to) {
		next := make([]string, 0, len(statusTable[from]))
		for _, s := range statusTable[from] {
			next = append(next, string(s))
		}
		return NewTableTransitionError("order", role, string(from), string(to), next)
	}
	return nil
}

// PaymentStatus is the payment state recorded on the order
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentCash       PaymentMethod = "cash"
	PaymentWallet     PaymentMethod = "wallet"
	PaymentNetBanking PaymentMethod = "netbanking"
)

// ParsePaymentMethod validates a payment method string
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentCard, PaymentUPI, PaymentCash, PaymentWallet, PaymentNetBanking:
		return m, nil
	}
	return "", shared.NewValidationError("Unsupported payment method: %q", s)
}
