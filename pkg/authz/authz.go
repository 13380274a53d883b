// Package authz centralizes the ownership/role predicate that protected
// operations share, so the organizer-or-admin decision is made in exactly
// one place instead of inline at every call site.
package authz

import (
	id "volunity/pkg/domain"
)

// Actor is the authenticated caller as resolved by the identity layer.
type Actor struct {
	ID   id.UserID
	Role string
}

// Role names. Admin moderates everything; organizers own the events they
// create; plain users volunteer.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role names one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleOrganizer || role == RoleAdmin
}

// HasRole reports whether the actor's role is in the allowed set.
func HasRole(actor Actor, roles ...string) bool {
	for _, role := range roles {
		if actor.Role == role {
			return true
		}
	}
	return false
}

// CanManage reports whether the actor may mutate a resource owned by ownerID.
// Admins may manage anything; everyone else only their own resources.
func CanManage(actor Actor, ownerID id.UserID) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.ID == ownerID
}
