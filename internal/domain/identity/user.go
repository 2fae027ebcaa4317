package identity

import (
	"context"

	"github.com/google/uuid"
)

// Role represents a user's role on the platform
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleVendor Role = "VENDOR"
	RoleBuyer  Role = "BUYER"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleBuyer:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// User is a read model of the identity context, exposing only what the
// settlement side needs for referential checks.
type User struct {
	ID     uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   Role      `json:"role"`
	Active bool      `json:"active"`
}

// IsVendor returns true if the user can receive vendor payouts
func (u *User) IsVendor() bool {
	return u.Role == RoleVendor && u.Active
}

// UserReader provides read access to users owned by the identity context
type UserReader interface {
	// FindByID finds a user by ID. Returns shared.ErrNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Exists reports whether a user with the given ID exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
