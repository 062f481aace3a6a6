// Package auth implements bearer-token authentication for the CareGrid
// authorization service.
//
// Tokens have the form caregrid_<base64url(32 random bytes)>. Only the
// SHA-256 digest is stored; the plaintext exists once, at creation, and an
// 8-character prefix is retained for identification in listings and rate
// limit keys. Token issuance is not exposed over HTTP — tokens are
// provisioned out of band through the seed tooling — but validation is part
// of the service contract: every request either authenticates to an active,
// unexpired, unrevoked token or gets a 401.
//
// TokenManager.ValidateToken returns an AuthContext (user + token), which
// the auth middleware attaches to the request context via pkg/contextkeys.
package auth
