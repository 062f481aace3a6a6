// Package authz is the typed HTTP client for the CareGrid authorization
// service. It is the only networked component of the client library.
//
// # Endpoints
//
//	GET  /api/v1/users/me/permissions   - role and permission set
//	GET  /api/v1/users/me/modules       - accessible module list
//	POST /api/v1/rbac/check-permission  - server-side re-verification
//
// The bearer credential rides in the Authorization header on every call.
//
// # Error mapping
//
// The client never invents authorization state. A 401 becomes
// session.ErrUnauthenticated. Transport failures, 5xx answers, undecodable
// bodies, unknown roles, and every other 4xx become
// session.ErrAuthorizationUnavailable, which callers must treat as denial.
package authz
