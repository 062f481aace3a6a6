package dispatch

import "errors"

var (
	// ErrAccessDenied is returned when the capability gate denies a module
	// open or an action
	ErrAccessDenied = errors.New("access denied")

	// ErrModuleUnavailable is returned when an accessible module has no view
	// implementation yet. Not a security denial.
	ErrModuleUnavailable = errors.New("module not yet available")
)
