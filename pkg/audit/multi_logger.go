package audit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// MultiLogger fans each event out to multiple loggers, typically database
// plus file. Async mode keeps audit writes off the request path.
type MultiLogger struct {
	loggers []Logger
	async   bool
	wg      sync.WaitGroup
	errChan chan error
	build   eventBuilders
}

// NewMultiLogger creates a new multi-logger that writes to every destination
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{
		loggers: loggers,
		async:   true,
		errChan: make(chan error, 16),
	}
}

// SetAsync sets whether logging should be asynchronous
func (m *MultiLogger) SetAsync(async bool) {
	m.async = async
}

// Log logs an audit event to all configured loggers
func (m *MultiLogger) Log(ctx context.Context, event *AuditEvent) error {
	if len(m.loggers) == 0 {
		return nil
	}

	if m.async {
		return m.logAsync(ctx, event)
	}

	return m.logSync(ctx, event)
}

func (m *MultiLogger) logSync(ctx context.Context, event *AuditEvent) error {
	var firstErr error

	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (m *MultiLogger) logAsync(ctx context.Context, event *AuditEvent) error {
	for _, logger := range m.loggers {
		m.wg.Add(1)
		go func(l Logger) {
			defer m.wg.Done()
			// Detached from the request context so an aborted request
			// doesn't drop its audit trail.
			if err := l.Log(context.WithoutCancel(ctx), event); err != nil {
				select {
				case m.errChan <- err:
				default:
					// Channel full, drop error
				}
			}
		}(logger)
	}

	return nil
}

// LogPermissionCheck logs the outcome of a permission decision
func (m *MultiLogger) LogPermissionCheck(ctx context.Context, role, permission string, allowed bool) error {
	return m.Log(ctx, m.build.permissionCheck(ctx, role, permission, allowed))
}

// LogAccessDenied logs a denied authorization decision
func (m *MultiLogger) LogAccessDenied(ctx context.Context, resourceType ResourceType, resourceID, reason string) error {
	return m.Log(ctx, m.build.accessDenied(ctx, resourceType, resourceID, reason))
}

// LogModulesResolved logs a module derivation for a role
func (m *MultiLogger) LogModulesResolved(ctx context.Context, role string, modules []string) error {
	return m.Log(ctx, m.build.modulesResolved(ctx, role, modules))
}

// LogMatrixUpdated logs a role-permission matrix change
func (m *MultiLogger) LogMatrixUpdated(ctx context.Context, role string, before, after []string) error {
	return m.Log(ctx, m.build.matrixUpdated(ctx, role, before, after))
}

// LogTokenEvent logs a token lifecycle or validation event
func (m *MultiLogger) LogTokenEvent(ctx context.Context, eventType EventType, tokenPrefix string, status EventStatus, message string) error {
	return m.Log(ctx, m.build.tokenEvent(ctx, eventType, tokenPrefix, status, message))
}

// LogHTTPRequest logs an HTTP request
func (m *MultiLogger) LogHTTPRequest(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, err error) error {
	return m.Log(ctx, m.build.httpRequest(ctx, r, statusCode, duration, err))
}

// Wait waits for all async logging operations to complete
func (m *MultiLogger) Wait() {
	m.wg.Wait()
}

// GetErrors drains errors that occurred during async logging
func (m *MultiLogger) GetErrors() []error {
	var errors []error
	for {
		select {
		case err := <-m.errChan:
			errors = append(errors, err)
		default:
			return errors
		}
	}
}

// Close waits for pending writes and closes all loggers
func (m *MultiLogger) Close() error {
	m.wg.Wait()

	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close logger: %w", err)
		}
	}

	close(m.errChan)
	return firstErr
}
