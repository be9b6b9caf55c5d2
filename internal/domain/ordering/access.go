package ordering

import (
	"github.com/foodontracks/backend/internal/domain/identity"
)

// CanAccess is the ownership predicate shared by order, batch and review
// paths. Admins bypass it. Delivery agents see their own orders and any
// unassigned order they could claim.
func CanAccess(actor identity.Actor, o *Order) bool {
	if o == nil {
		return false
	}
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleCustomer:
		return o.UserID == actor.UserID
	case identity.RoleRestaurantOwner:
		return actor.OwnsRestaurant(o.RestaurantID)
	case identity.RoleDeliveryGuy:
		if o.DeliveryAgentID != nil {
			return *o.DeliveryAgentID == actor.UserID
		}
		return o.Status.IsClaimable()
	default:
		return false
	}
}
