// Package httputil provides HTTP handler utilities for consistent error handling,
// JSON encoding/decoding, and request parsing.
//
// # Overview
//
// Handlers across the authorization API share these helpers so every error
// reaches clients as the same JSON shape:
//
//	{"error": "permission physician.notes.delete not found"}
//
// and every middleware chain is composed the same way:
//
//	handler := httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		httputil.LoggingMiddleware(logger),
//	)(mux)
//
// # Related Packages
//
//   - pkg/api: Route handlers built on these helpers
//   - pkg/middleware: Auth, request ID, and rate limit middleware
package httputil
