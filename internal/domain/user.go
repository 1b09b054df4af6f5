package domain

import "time"

// Role is the caller's application role as asserted by the identity provider.
type Role string

const (
	RoleUser      Role = "USER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// Identity is an authenticated caller.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the caller has the ADMIN role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanOrganize reports whether the caller may view organizer reporting.
func (i Identity) CanOrganize() bool {
	return i.Role == RoleOrganizer || i.Role == RoleAdmin
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated identity.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}
