package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthTokenCreate  EventType = "auth.token_create"
	EventTypeAuthTokenRevoke  EventType = "auth.token_revoke"
	EventTypeAuthTokenInvalid EventType = "auth.token_invalid"

	// Authorization events
	EventTypeAuthzPermissionCheck EventType = "authz.permission_check"
	EventTypeAuthzAccessDenied    EventType = "authz.access_denied"
	EventTypeAuthzModulesResolved EventType = "authz.modules_resolved"

	// Matrix administration events
	EventTypeMatrixUpdated EventType = "rbac.matrix_updated"
	EventTypeMatrixSeeded  EventType = "rbac.matrix_seeded"

	// Access events for sensitive reads
	EventTypeAccessAuditRead EventType = "access.audit_read"

	// Request-level event emitted by the audit middleware
	EventTypeHTTPRequest EventType = "http.request"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceTypeUser       ResourceType = "user"
	ResourceTypeToken      ResourceType = "token"
	ResourceTypeRole       ResourceType = "role"
	ResourceTypePermission ResourceType = "permission"
	ResourceTypeModule     ResourceType = "module"
	ResourceTypeMatrix     ResourceType = "matrix"
)

// AuditEvent represents a single audit log entry. The field set mirrors the
// audit_events table.
type AuditEvent struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor
	UserID   *int64 `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`

	// Resource
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	// Request context
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`

	// Details
	Message      string                 `json:"message,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON converts the audit event to JSON
func (e *AuditEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*AuditEvent, error) {
	var event AuditEvent
	err := json.Unmarshal(data, &event)
	return &event, err
}

// SearchFilter represents filters for searching audit logs
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time

	UserID   *int64
	Username string
	Role     string

	EventTypes []EventType
	Status     *EventStatus

	ResourceType ResourceType
	ResourceID   string

	IPAddress string
	Method    string
	Path      string

	Limit  int
	Offset int

	SortBy    string // column name to sort by
	SortOrder string // "asc" or "desc"
}

// ExportFormat represents the format for exporting audit logs
type ExportFormat string

const (
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatNDJSON ExportFormat = "ndjson" // Newline-delimited JSON
)

// AuditStats represents statistics about audit logs
type AuditStats struct {
	TotalEvents      int64                 `json:"total_events"`
	EventsByType     map[EventType]int64   `json:"events_by_type"`
	EventsByStatus   map[EventStatus]int64 `json:"events_by_status"`
	EventsByRole     map[string]int64      `json:"events_by_role"`
	UniqueUsers      int64                 `json:"unique_users"`
	UniqueIPs        int64                 `json:"unique_ips"`
	AccessDenials    int64                 `json:"access_denials"`
	InvalidTokenHits int64                 `json:"invalid_token_hits"`
	TimeRange        *TimeRange            `json:"time_range,omitempty"`
}

// TimeRange represents a time range for statistics
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PrunePolicy defines how long audit events are kept and what happens to
// events that age out.
type PrunePolicy struct {
	// RetentionDays is the number of days to keep audit events
	RetentionDays int

	// ArchiveFirst exports aged-out events to the archive before deletion
	ArchiveFirst bool
}

// DefaultPrunePolicy returns the default retention policy (90 days, archive
// before delete).
func DefaultPrunePolicy() PrunePolicy {
	return PrunePolicy{
		RetentionDays: 90,
		ArchiveFirst:  true,
	}
}
