// Package middleware provides HTTP middleware for the caregrid API:
// bearer-token authentication, request correlation IDs, and rate limiting
// (in-memory token bucket or Redis-backed fixed window for multi-instance
// deployments).
//
// Authentication attaches an *auth.AuthContext to the request context;
// downstream handlers retrieve it with GetAuthContext. Permission checks
// are not done here — they belong to the rbac package, which layers on
// top of the identity this package establishes.
package middleware
