package session

import "errors"

var (
	// ErrUnauthenticated is returned when no credential is held or the
	// authorization service rejected the credential
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAuthorizationUnavailable is returned when the authorization service
	// cannot produce a usable answer. Callers must treat it as denial.
	ErrAuthorizationUnavailable = errors.New("authorization unavailable")

	// ErrSessionSuperseded is returned when a newer activation landed while
	// this one was loading, so its result was discarded
	ErrSessionSuperseded = errors.New("session superseded")

	// ErrUnknownRole is returned when a role string is outside the closed set
	ErrUnknownRole = errors.New("unknown role")
)
