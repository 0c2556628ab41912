package auth

import (
	"errors"

	"github.com/google/uuid"
)

// Role is a named capability granted to an actor by the identity
// provider. The workflow core only ever checks for role membership,
// it never touches credentials.
type Role string

const (
	RoleApprover      Role = "approver"
	RoleAdministrator Role = "administrator"
)

var ErrMissingRole = errors.New("you do not have the role required for this action")

// Actor is the acting user for an operation. It is threaded through
// every operation explicitly, there is no ambient "current user".
type Actor struct {
	ID    uuid.UUID
	Name  string
	Roles []Role
}

// HasRole reports whether the actor holds the role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}

	return false
}

// Require returns ErrMissingRole when the actor does not hold the role.
func (a Actor) Require(role Role) error {
	if !a.HasRole(role) {
		return ErrMissingRole
	}

	return nil
}
