package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence in tokens and documents.
// Valid values are defined as constants below.
type Role string

const (
	RoleNurse     Role = "nurse"
	RoleHeadNurse Role = "head_nurse"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleNurse, RoleHeadNurse, RoleAdmin:
		return true
	}
	return false
}

// rank orders roles for permission checks. Unknown roles rank below nurse.
func (r Role) rank() int {
	switch r {
	case RoleNurse:
		return 1
	case RoleHeadNurse:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// AtLeast reports whether r grants at least the privileges of other.
func (r Role) AtLeast(other Role) bool {
	return r.rank() >= other.rank()
}

// Identity represents the authenticated principal returned by the identity
// provider. Adapters map provider-specific payloads into this shape.
type Identity struct {
	ProviderID  string // stable provider identifier (e.g., GitHub numeric id)
	Username    string
	Email       string
	DisplayName string
}

// Claims is the decoded payload of a session token. Tokens are stateless;
// everything the API needs to authorize a request is carried here.
type Claims struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
	IssuedAt time.Time `json:"iat"`
	Expiry   time.Time `json:"exp"`
}

// Expired reports whether the claims are past their expiry at the given time.
func (c Claims) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}
