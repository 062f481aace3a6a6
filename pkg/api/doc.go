// Package api assembles the HTTP surface of the authorization service.
//
// Three groups of routes share one middleware chain: session endpoints that
// any authenticated user may call (their own permissions, their accessible
// modules, ad-hoc permission checks), admin endpoints gated on the
// users.manage_roles permission (catalog listing and matrix management), and
// the audit query endpoints mounted behind the same gate. Health and metrics
// endpoints sit outside the chain entirely.
//
// The chain distinguishes three failure classes and never mixes them up:
// 401 for missing or bad credentials, 403 for policy denials, and 503 when
// the authorization backend itself cannot answer.
package api
