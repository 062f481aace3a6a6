package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mindlab-health/caregrid/pkg/observability"
)

// DBLogger writes audit events to the audit_events table. The table is
// created by the authorization migrations; this logger assumes it exists.
type DBLogger struct {
	db      *sql.DB
	metrics *observability.Metrics
	build   eventBuilders
}

// NewDBLogger creates a new database-backed audit logger. metrics may be nil.
func NewDBLogger(db *sql.DB, metrics *observability.Metrics) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db, metrics: metrics}, nil
}

// Log logs an audit event to the database
func (l *DBLogger) Log(ctx context.Context, event *AuditEvent) error {
	var metadataJSON []byte
	var err error

	if len(event.Metadata) > 0 {
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (
			timestamp, event_type, status,
			user_id, username, role,
			resource_type, resource_id,
			ip_address, user_agent, request_id,
			method, path, status_code,
			message, error_message, metadata
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8,
			$9, $10, $11,
			$12, $13, $14,
			$15, $16, $17
		) RETURNING id
	`

	err = l.db.QueryRowContext(ctx, query,
		event.Timestamp, event.EventType, event.Status,
		event.UserID, event.Username, event.Role,
		event.ResourceType, event.ResourceID,
		event.IPAddress, event.UserAgent, event.RequestID,
		event.Method, event.Path, event.StatusCode,
		event.Message, event.ErrorMessage, metadataJSON,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	if l.metrics != nil {
		l.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType), string(event.Status)).Inc()
	}

	return nil
}

// LogPermissionCheck logs the outcome of a permission decision
func (l *DBLogger) LogPermissionCheck(ctx context.Context, role, permission string, allowed bool) error {
	return l.Log(ctx, l.build.permissionCheck(ctx, role, permission, allowed))
}

// LogAccessDenied logs a denied authorization decision
func (l *DBLogger) LogAccessDenied(ctx context.Context, resourceType ResourceType, resourceID, reason string) error {
	return l.Log(ctx, l.build.accessDenied(ctx, resourceType, resourceID, reason))
}

// LogModulesResolved logs a module derivation for a role
func (l *DBLogger) LogModulesResolved(ctx context.Context, role string, modules []string) error {
	return l.Log(ctx, l.build.modulesResolved(ctx, role, modules))
}

// LogMatrixUpdated logs a role-permission matrix change
func (l *DBLogger) LogMatrixUpdated(ctx context.Context, role string, before, after []string) error {
	return l.Log(ctx, l.build.matrixUpdated(ctx, role, before, after))
}

// LogTokenEvent logs a token lifecycle or validation event
func (l *DBLogger) LogTokenEvent(ctx context.Context, eventType EventType, tokenPrefix string, status EventStatus, message string) error {
	return l.Log(ctx, l.build.tokenEvent(ctx, eventType, tokenPrefix, status, message))
}

// LogHTTPRequest logs an HTTP request
func (l *DBLogger) LogHTTPRequest(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, err error) error {
	return l.Log(ctx, l.build.httpRequest(ctx, r, statusCode, duration, err))
}

// Search searches audit events based on filters
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*AuditEvent, error) {
	query := `
		SELECT
			id, timestamp, event_type, status,
			user_id, username, role,
			resource_type, resource_id,
			ip_address, user_agent, request_id,
			method, path, status_code,
			message, error_message, metadata
		FROM audit_events
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *filter.StartTime)
		argCount++
	}

	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argCount)
		args = append(args, *filter.EndTime)
		argCount++
	}

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, *filter.UserID)
		argCount++
	}

	if filter.Username != "" {
		query += fmt.Sprintf(" AND username = $%d", argCount)
		args = append(args, filter.Username)
		argCount++
	}

	if filter.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", argCount)
		args = append(args, filter.Role)
		argCount++
	}

	if len(filter.EventTypes) > 0 {
		placeholders := make([]string, len(filter.EventTypes))
		for i, et := range filter.EventTypes {
			placeholders[i] = fmt.Sprintf("$%d", argCount)
			args = append(args, string(et))
			argCount++
		}
		query += fmt.Sprintf(" AND event_type IN (%s)", strings.Join(placeholders, ", "))
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, string(*filter.Status))
		argCount++
	}

	if filter.ResourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argCount)
		args = append(args, string(filter.ResourceType))
		argCount++
	}

	if filter.ResourceID != "" {
		query += fmt.Sprintf(" AND resource_id = $%d", argCount)
		args = append(args, filter.ResourceID)
		argCount++
	}

	if filter.IPAddress != "" {
		query += fmt.Sprintf(" AND ip_address = $%d", argCount)
		args = append(args, filter.IPAddress)
		argCount++
	}

	if filter.Method != "" {
		query += fmt.Sprintf(" AND method = $%d", argCount)
		args = append(args, filter.Method)
		argCount++
	}

	if filter.Path != "" {
		query += fmt.Sprintf(" AND path LIKE $%d", argCount)
		args = append(args, "%"+filter.Path+"%")
		argCount++
	}

	if filter.SortBy != "" && sortableColumn(filter.SortBy) {
		order := "DESC"
		if filter.SortOrder == "asc" {
			order = "ASC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", filter.SortBy, order)
	} else {
		query += " ORDER BY timestamp DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit events: %w", err)
	}
	defer rows.Close()

	events := make([]*AuditEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}

	return events, nil
}

// Get retrieves a single audit event by ID. Returns nil when not found.
func (l *DBLogger) Get(ctx context.Context, id int64) (*AuditEvent, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT
			id, timestamp, event_type, status,
			user_id, username, role,
			resource_type, resource_id,
			ip_address, user_agent, request_id,
			method, path, status_code,
			message, error_message, metadata
		FROM audit_events WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanEvent(rows)
}

// scanEvent scans one audit_events row. Nullable text columns go through
// sql.NullString so rows written by other tools scan cleanly.
func scanEvent(rows *sql.Rows) (*AuditEvent, error) {
	event := &AuditEvent{}

	var userID sql.NullInt64
	var username, role, resourceType, resourceID sql.NullString
	var ipAddress, userAgent, requestID, method, path sql.NullString
	var statusCode sql.NullInt64
	var message, errorMessage sql.NullString
	var metadataJSON []byte

	err := rows.Scan(
		&event.ID, &event.Timestamp, &event.EventType, &event.Status,
		&userID, &username, &role,
		&resourceType, &resourceID,
		&ipAddress, &userAgent, &requestID,
		&method, &path, &statusCode,
		&message, &errorMessage, &metadataJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit event: %w", err)
	}

	if userID.Valid {
		event.UserID = &userID.Int64
	}
	event.Username = username.String
	event.Role = role.String
	event.ResourceType = ResourceType(resourceType.String)
	event.ResourceID = resourceID.String
	event.IPAddress = ipAddress.String
	event.UserAgent = userAgent.String
	event.RequestID = requestID.String
	event.Method = method.String
	event.Path = path.String
	event.StatusCode = int(statusCode.Int64)
	event.Message = message.String
	event.ErrorMessage = errorMessage.String

	if len(metadataJSON) > 0 {
		event.Metadata = make(map[string]interface{})
		if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return event, nil
}

// sortableColumn whitelists ORDER BY targets; sort fields come from query
// strings and must never reach SQL unchecked.
func sortableColumn(name string) bool {
	switch name {
	case "timestamp", "event_type", "status", "user_id", "role", "id":
		return true
	}
	return false
}

// GetStats retrieves audit statistics for an optional time range
func (l *DBLogger) GetStats(ctx context.Context, startTime, endTime *time.Time) (*AuditStats, error) {
	stats := &AuditStats{
		EventsByType:   make(map[EventType]int64),
		EventsByStatus: make(map[EventStatus]int64),
		EventsByRole:   make(map[string]int64),
	}

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if startTime != nil {
		whereClause += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *startTime)
		argCount++
		stats.TimeRange = &TimeRange{Start: *startTime}
	}

	if endTime != nil {
		whereClause += fmt.Sprintf(" AND timestamp <= $%d", argCount)
		args = append(args, *endTime)
		if stats.TimeRange == nil {
			stats.TimeRange = &TimeRange{}
		}
		stats.TimeRange.End = *endTime
	}

	err := l.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM audit_events %s", whereClause), args...).Scan(&stats.TotalEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit events: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, fmt.Sprintf("SELECT event_type, COUNT(*) FROM audit_events %s GROUP BY event_type", whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group events by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType EventType
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		stats.EventsByType[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = l.db.QueryContext(ctx, fmt.Sprintf("SELECT status, COUNT(*) FROM audit_events %s GROUP BY status", whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group events by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status EventStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.EventsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = l.db.QueryContext(ctx, fmt.Sprintf("SELECT role, COUNT(*) FROM audit_events %s AND role IS NOT NULL AND role != '' GROUP BY role", whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group events by role: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var count int64
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		stats.EventsByRole[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = l.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(DISTINCT user_id) FROM audit_events %s AND user_id IS NOT NULL", whereClause), args...).Scan(&stats.UniqueUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique users: %w", err)
	}

	err = l.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(DISTINCT ip_address) FROM audit_events %s AND ip_address IS NOT NULL AND ip_address != ''", whereClause), args...).Scan(&stats.UniqueIPs)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique IPs: %w", err)
	}

	err = l.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM audit_events %s AND status = 'denied'", whereClause), args...).Scan(&stats.AccessDenials)
	if err != nil {
		return nil, fmt.Errorf("failed to count access denials: %w", err)
	}

	err = l.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM audit_events %s AND event_type = 'auth.token_invalid'", whereClause), args...).Scan(&stats.InvalidTokenHits)
	if err != nil {
		return nil, fmt.Errorf("failed to count invalid token events: %w", err)
	}

	return stats, nil
}

// Close is a no-op: the database connection is shared and owned elsewhere.
func (l *DBLogger) Close() error {
	return nil
}
