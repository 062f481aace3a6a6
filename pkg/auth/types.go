package auth

import "time"

// User represents a platform account. Role is one of the closed role set;
// it is kept as a plain string here so this package stays below pkg/rbac in
// the import graph.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	FullName  string     `json:"full_name,omitempty"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// APIToken represents a bearer credential. Only the SHA-256 digest is
// stored; the plaintext token exists exactly once, at creation.
type APIToken struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	TokenHash   string     `json:"-"` // Never expose hash
	TokenPrefix string     `json:"token_prefix"`
	Name        string     `json:"name"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// AuthContext holds the authenticated identity for one request. The auth
// middleware builds it after token validation and carries it via
// pkg/contextkeys.
type AuthContext struct {
	User  *User
	Token *APIToken
}

// Role returns the authenticated role name, or "" when unauthenticated.
func (ac *AuthContext) Role() string {
	if ac == nil || ac.User == nil {
		return ""
	}
	return ac.User.Role
}
