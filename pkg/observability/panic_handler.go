package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with structured logging
//
// Usage in defer statements:
//
//	func riskyOperation() {
//	    defer observability.RecoverPanic(logger, "risky operation")
//	    // ... code that might panic
//	}
//
// If a panic occurs it is recovered and logged at Error level with the panic
// value, full stack trace, and the supplied context string. After logging,
// the panic is NOT re-raised; the caller returns normally. This may leave the
// operation half-done, so only use it at goroutine or request boundaries.
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("PANIC recovered")
	}
}

// MustRecover recovers from a panic and converts it to an error
//
// Usage when you want to convert panics to errors:
//
//	func composeCards() (cards []Card, err error) {
//	    defer func() {
//	        err = observability.MustRecover(recover())
//	    }()
//	    // ... code that might panic
//	    return cards, nil
//	}
//
// If a panic occurred, returns an error describing the panic; otherwise nil.
// The stack trace is NOT included in the error - use RecoverPanic for
// structured logging with full stack traces.
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}
