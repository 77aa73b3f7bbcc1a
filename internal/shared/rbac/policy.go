package rbac

import (
	"textbook-backend/internal/shared/apperror"
)

// =====================================================
// ROLES
// =====================================================
const (
	RoleAdmin            = "admin"
	RoleWarehouseManager = "warehouse_manager"
	RoleTeacher          = "teacher"
	RoleRegularUser      = "regular_user"
)

// ValidRoles lists every role the system accepts.
var ValidRoles = []string{RoleAdmin, RoleWarehouseManager, RoleTeacher, RoleRegularUser}

// Actor is the identity tuple of the authenticated caller, supplied by
// the JWT middleware. The policy never authenticates; it only evaluates.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

// IsValidRole reports whether role is one of the four known roles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the role bypasses ownership and
// status restrictions on orders.
func IsPrivileged(role string) bool {
	return role == RoleAdmin || role == RoleWarehouseManager
}

// =====================================================
// VISIBILITY SCOPE
// =====================================================

// Scope is the row-level visibility predicate over order_person that
// repositories compose into list queries.
type Scope struct {
	// All means no filtering (admin, warehouse manager).
	All bool
	// Username restricts to orders placed on behalf of this user.
	Username string
	// OwnerRole additionally admits orders whose order_person currently
	// has this role (teachers see regular users' orders).
	OwnerRole string
}

// VisibilityScope returns the row-level filter for the actor.
//   - admin, warehouse_manager: unrestricted
//   - teacher: own orders plus orders owned by regular users
//   - regular_user: own orders only
func VisibilityScope(actor Actor) Scope {
	switch actor.Role {
	case RoleAdmin, RoleWarehouseManager:
		return Scope{All: true}
	case RoleTeacher:
		return Scope{Username: actor.Username, OwnerRole: RoleRegularUser}
	default:
		return Scope{Username: actor.Username}
	}
}

// Allows evaluates the scope against a single order's owner. ownerRole
// is the order_person's role at inspection time, not at order creation.
func (s Scope) Allows(orderPerson, ownerRole string) bool {
	if s.All {
		return true
	}
	if orderPerson == s.Username {
		return true
	}
	return s.OwnerRole != "" && ownerRole == s.OwnerRole
}

// =====================================================
// WRITE PERMISSION
// =====================================================

// CanAccessOrder checks whether the actor may see or reference an order
// owned by orderPerson. ownerRole is looked up live by the caller.
func CanAccessOrder(actor Actor, orderPerson, ownerRole string) error {
	if VisibilityScope(actor).Allows(orderPerson, ownerRole) {
		return nil
	}
	return apperror.PermissionDenied("order is outside your visibility")
}

// CanMutateOrder checks whether the actor may create, modify or cancel
// an order owned by orderPerson in the given status. Non-privileged
// actors may only touch their visible orders, and only while pending.
func CanMutateOrder(actor Actor, orderPerson, ownerRole, status string) error {
	if IsPrivileged(actor.Role) {
		return nil
	}
	if err := CanAccessOrder(actor, orderPerson, ownerRole); err != nil {
		return err
	}
	if status != "pending" {
		return apperror.InvalidState("only pending orders can be modified")
	}
	return nil
}

// RequireRole returns PermissionDenied unless the actor holds one of
// the given roles. Used by handlers for warehouse/admin-only operations.
func RequireRole(actor Actor, roles ...string) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return apperror.PermissionDenied("operation requires elevated role")
}
