package domain

import "time"

// Role is the authorization group carried inside an issued credential.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleSystemUser Role = "SystemUser"
)

// Valid reports whether the role is one the issuing service hands out.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleSystemUser
}

// Identity holds the claims decoded from a credential. It is derived data:
// recomputed whenever the credential changes, never mutated directly.
type Identity struct {
	UserID    int
	UserName  string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the identity is stale at the given instant.
// An identity is only usable while its expiry lies strictly in the future.
func (i Identity) ExpiredAt(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
