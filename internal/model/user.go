// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is a user's permission level.
//
// WHY A NAMED TYPE AND NOT A BARE INT?
// The database stores UserType as an integer (0 or 1), and the original schema
// leaks that number everywhere. A named type with constants means the rest of
// the codebase compares against RoleAdmin, never against a magic 1, and the
// compiler catches accidental mixups with other ints.
type Role int

const (
	// RoleStaff is the default role: read inventory, manage own profile.
	RoleStaff Role = 0
	// RoleAdmin may additionally mutate inventory and upload images.
	RoleAdmin Role = 1
)

// Valid reports whether r is one of the two defined roles.
// Tokens are decoded from client-supplied bytes, so the role claim is
// range-checked before it is trusted.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleStaff:
		return "staff"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// User represents a registered account backed by the UserTable row.
//
// PasswordHash is the bcrypt hash of the password — never the plaintext, and
// it is never serialized to JSON (the `json:"-"` tag excludes it entirely).
// OAuth-created accounts have an empty hash; password login is disabled for
// them until they set one via the profile endpoint.
//
// GitHubID is non-zero only for accounts created through the GitHub OAuth
// login. It maps to a nullable UNIQUE column so one GitHub account can back
// at most one local account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"userType"`
	GitHubID     int64     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the authenticated view of a user carried inside the session
// token and through request contexts.
//
// It deliberately contains only what the token carries: the server verifies
// signature and expiry without consulting storage, so a renamed or deleted
// user keeps their old identity until the token expires (24h worst case).
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"userType"`
}

// Identity returns the token-embeddable view of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}
