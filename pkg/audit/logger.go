package audit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/mindlab-health/caregrid/pkg/contextkeys"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log logs an audit event
	Log(ctx context.Context, event *AuditEvent) error

	// LogPermissionCheck logs the outcome of a permission decision
	LogPermissionCheck(ctx context.Context, role, permission string, allowed bool) error

	// LogAccessDenied logs a denied authorization decision
	LogAccessDenied(ctx context.Context, resourceType ResourceType, resourceID, reason string) error

	// LogModulesResolved logs a module derivation for a role
	LogModulesResolved(ctx context.Context, role string, modules []string) error

	// LogMatrixUpdated logs a role-permission matrix change with before and
	// after permission sets
	LogMatrixUpdated(ctx context.Context, role string, before, after []string) error

	// LogTokenEvent logs a token lifecycle or validation event
	LogTokenEvent(ctx context.Context, eventType EventType, tokenPrefix string, status EventStatus, message string) error

	// LogHTTPRequest logs an HTTP request (for middleware)
	LogHTTPRequest(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, err error) error

	// Close closes the logger and flushes any buffered events
	Close() error
}

// WithLogger adds an audit logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return contextkeys.WithAuditLogger(ctx, logger)
}

// FromContext retrieves the audit logger from context, falling back to a
// no-op logger so call sites never need a nil check.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(contextkeys.AuditLoggerKey).(Logger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger discards every event
type noOpLogger struct{}

func (l *noOpLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noOpLogger) LogPermissionCheck(ctx context.Context, role, permission string, allowed bool) error {
	return nil
}
func (l *noOpLogger) LogAccessDenied(ctx context.Context, resourceType ResourceType, resourceID, reason string) error {
	return nil
}
func (l *noOpLogger) LogModulesResolved(ctx context.Context, role string, modules []string) error {
	return nil
}
func (l *noOpLogger) LogMatrixUpdated(ctx context.Context, role string, before, after []string) error {
	return nil
}
func (l *noOpLogger) LogTokenEvent(ctx context.Context, eventType EventType, tokenPrefix string, status EventStatus, message string) error {
	return nil
}
func (l *noOpLogger) LogHTTPRequest(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, err error) error {
	return nil
}
func (l *noOpLogger) Close() error { return nil }

// NopLogger returns a logger that discards every event, for tests and for
// deployments with auditing disabled.
func NopLogger() Logger { return &noOpLogger{} }

// buildBaseEvent creates an audit event with the actor and request context
// pulled from the context keys the auth middleware populates.
func buildBaseEvent(ctx context.Context, r *http.Request, eventType EventType, status EventStatus) *AuditEvent {
	event := &AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
		RequestID: contextkeys.GetRequestID(ctx),
		Role:      contextkeys.GetRole(ctx),
		Metadata:  make(map[string]interface{}),
	}

	if userIDStr := contextkeys.GetUserID(ctx); userIDStr != "" {
		if id, err := strconv.ParseInt(userIDStr, 10, 64); err == nil {
			event.UserID = &id
		}
	}

	if r != nil {
		event.Method = r.Method
		event.Path = r.URL.Path
		event.UserAgent = r.UserAgent()
		event.IPAddress = clientIP(r)
	}

	return event
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// eventBuilders holds the shared construction for the Logger convenience
// methods so DBLogger, FileLogger and MultiLogger stay in lockstep.
type eventBuilders struct{}

func (eventBuilders) permissionCheck(ctx context.Context, role, permission string, allowed bool) *AuditEvent {
	status := EventStatusSuccess
	eventType := EventTypeAuthzPermissionCheck
	if !allowed {
		status = EventStatusDenied
		eventType = EventTypeAuthzAccessDenied
	}
	event := buildBaseEvent(ctx, nil, eventType, status)
	event.Role = role
	event.ResourceType = ResourceTypePermission
	event.ResourceID = permission
	return event
}

func (eventBuilders) accessDenied(ctx context.Context, resourceType ResourceType, resourceID, reason string) *AuditEvent {
	event := buildBaseEvent(ctx, nil, EventTypeAuthzAccessDenied, EventStatusDenied)
	event.ResourceType = resourceType
	event.ResourceID = resourceID
	event.Message = reason
	return event
}

func (eventBuilders) modulesResolved(ctx context.Context, role string, modules []string) *AuditEvent {
	event := buildBaseEvent(ctx, nil, EventTypeAuthzModulesResolved, EventStatusSuccess)
	event.Role = role
	event.ResourceType = ResourceTypeModule
	event.Metadata["modules"] = modules
	return event
}

func (eventBuilders) matrixUpdated(ctx context.Context, role string, before, after []string) *AuditEvent {
	event := buildBaseEvent(ctx, nil, EventTypeMatrixUpdated, EventStatusSuccess)
	event.ResourceType = ResourceTypeMatrix
	event.ResourceID = role
	event.Metadata["before"] = before
	event.Metadata["after"] = after
	return event
}

func (eventBuilders) tokenEvent(ctx context.Context, eventType EventType, tokenPrefix string, status EventStatus, message string) *AuditEvent {
	event := buildBaseEvent(ctx, nil, eventType, status)
	event.ResourceType = ResourceTypeToken
	event.ResourceID = tokenPrefix
	event.Message = message
	return event
}

func (eventBuilders) httpRequest(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, err error) *AuditEvent {
	status := EventStatusSuccess
	if statusCode >= 400 {
		status = EventStatusFailure
	}
	if statusCode == http.StatusForbidden {
		status = EventStatusDenied
	}

	event := buildBaseEvent(ctx, r, EventTypeHTTPRequest, status)
	event.StatusCode = statusCode
	event.Metadata["duration_ms"] = duration.Milliseconds()
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	return event
}

// QuickLog is a convenience for simple audit logging through the context
// logger.
func QuickLog(ctx context.Context, eventType EventType, status EventStatus, message string) error {
	event := buildBaseEvent(ctx, nil, eventType, status)
	event.Message = message
	return FromContext(ctx).Log(ctx, event)
}

// LogDenied logs an access denial through the context logger.
func LogDenied(ctx context.Context, resourceType ResourceType, resourceID, reason string) error {
	return FromContext(ctx).LogAccessDenied(ctx, resourceType, resourceID, reason)
}
