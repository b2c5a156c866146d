package shared

import "github.com/google/uuid"

// Role is the coarse permission group of an actor
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleAccounting Role = "accounting"
	RoleDriver     Role = "driver"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDispatcher, RoleAccounting, RoleDriver:
		return true
	}
	return false
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated user a mutation is performed on behalf of
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// Validate rejects anonymous actors and unknown roles
func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return NewPermissionDeniedError("An authenticated user is required")
	}
	if !a.Role.IsValid() {
		return NewPermissionDeniedError("Unknown role: " + string(a.Role))
	}
	return nil
}
