package auth

import (
	"context"

	"github.com/google/uuid"
)

// Staff roles. Every authenticated caller carries exactly one.
const (
	RoleAdmin        = "admin"
	RoleDentist      = "dentist"
	RoleReceptionist = "receptionist"
)

// ValidRole reports whether role is one of the three staff roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleDentist || role == RoleReceptionist
}

// Identity is the authenticated caller, resolved by the JWT middleware from
// the verified token. Authorization decisions read it from the request
// context; it is never derived from request payloads.
type Identity struct {
	ID   uuid.UUID
	Role string
}

func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }
func (id Identity) IsDentist() bool { return id.Role == RoleDentist }

// IsZero reports whether the identity is unset (unauthenticated request).
func (id Identity) IsZero() bool {
	return id.ID == uuid.Nil && id.Role == ""
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by the auth middleware.
// The zero Identity means the request was not authenticated.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
