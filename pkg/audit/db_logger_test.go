package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/mindlab-health/caregrid/pkg/audit"
	"github.com/mindlab-health/caregrid/pkg/rbac"
)

func newDBLogger(t *testing.T) *audit.DBLogger {
	t.Helper()
	logger, err := audit.NewDBLogger(rbac.NewTestDB(t), nil)
	if err != nil {
		t.Fatalf("failed to create db logger: %v", err)
	}
	return logger
}

func TestDBLoggerLogAndGet(t *testing.T) {
	logger := newDBLogger(t)
	ctx := context.Background()

	userID := int64(42)
	event := &audit.AuditEvent{
		Timestamp:    time.Now().UTC(),
		EventType:    audit.EventTypeAuthzPermissionCheck,
		Status:       audit.EventStatusSuccess,
		UserID:       &userID,
		Username:     "dr.reyes",
		Role:         "physician",
		ResourceType: audit.ResourceTypePermission,
		ResourceID:   "meals.create_plans",
		Metadata:     map[string]interface{}{"source": "api"},
	}

	if err := logger.Log(ctx, event); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if event.ID == 0 {
		t.Fatal("expected assigned event ID")
	}

	got, err := logger.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected event, got nil")
	}
	if got.EventType != audit.EventTypeAuthzPermissionCheck || got.Role != "physician" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.UserID == nil || *got.UserID != 42 {
		t.Fatalf("expected user_id 42, got %v", got.UserID)
	}
	if got.Metadata["source"] != "api" {
		t.Fatalf("metadata not round-tripped: %v", got.Metadata)
	}

	missing, err := logger.Get(ctx, 99999)
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown ID")
	}
}

func TestDBLoggerConvenienceMethods(t *testing.T) {
	logger := newDBLogger(t)
	ctx := context.Background()

	if err := logger.LogPermissionCheck(ctx, "patient", "health_records.delete", false); err != nil {
		t.Fatalf("permission check log failed: %v", err)
	}
	if err := logger.LogModulesResolved(ctx, "physician", []string{"meals", "nutrition"}); err != nil {
		t.Fatalf("modules resolved log failed: %v", err)
	}
	if err := logger.LogMatrixUpdated(ctx, "therapist", []string{"a.b"}, []string{"a.b", "c.d"}); err != nil {
		t.Fatalf("matrix updated log failed: %v", err)
	}
	if err := logger.LogTokenEvent(ctx, audit.EventTypeAuthTokenInvalid, "caregrid_abcd1234", audit.EventStatusFailure, "unknown token"); err != nil {
		t.Fatalf("token event log failed: %v", err)
	}

	// A denied check lands as authz.access_denied with status denied.
	denied := audit.EventStatusDenied
	events, err := logger.Search(ctx, audit.SearchFilter{Status: &denied})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 denied event, got %d", len(events))
	}
	if events[0].EventType != audit.EventTypeAuthzAccessDenied {
		t.Fatalf("expected access_denied type, got %s", events[0].EventType)
	}
	if events[0].ResourceID != "health_records.delete" {
		t.Fatalf("unexpected resource: %s", events[0].ResourceID)
	}
}

func TestDBLoggerSearchFilters(t *testing.T) {
	logger := newDBLogger(t)
	ctx := context.Background()

	base := time.Now().UTC()
	seed := []*audit.AuditEvent{
		{Timestamp: base.Add(-2 * time.Hour), EventType: audit.EventTypeAuthzPermissionCheck, Status: audit.EventStatusSuccess, Role: "physician"},
		{Timestamp: base.Add(-time.Hour), EventType: audit.EventTypeAuthzAccessDenied, Status: audit.EventStatusDenied, Role: "patient"},
		{Timestamp: base, EventType: audit.EventTypeMatrixUpdated, Status: audit.EventStatusSuccess, Role: "admin"},
	}
	for _, e := range seed {
		if err := logger.Log(ctx, e); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	byRole, err := logger.Search(ctx, audit.SearchFilter{Role: "patient"})
	if err != nil {
		t.Fatalf("search by role failed: %v", err)
	}
	if len(byRole) != 1 || byRole[0].Role != "patient" {
		t.Fatalf("unexpected role filter result: %+v", byRole)
	}

	byType, err := logger.Search(ctx, audit.SearchFilter{
		EventTypes: []audit.EventType{audit.EventTypeMatrixUpdated, audit.EventTypeAuthzAccessDenied},
	})
	if err != nil {
		t.Fatalf("search by type failed: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("expected 2 events for type filter, got %d", len(byType))
	}

	cutoff := base.Add(-90 * time.Minute)
	recent, err := logger.Search(ctx, audit.SearchFilter{StartTime: &cutoff})
	if err != nil {
		t.Fatalf("search by time failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent events, got %d", len(recent))
	}
	// Default ordering is newest first.
	if recent[0].EventType != audit.EventTypeMatrixUpdated {
		t.Fatalf("expected newest first, got %s", recent[0].EventType)
	}

	limited, err := logger.Search(ctx, audit.SearchFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("paginated search failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 paginated event, got %d", len(limited))
	}
}

func TestDBLoggerStats(t *testing.T) {
	logger := newDBLogger(t)
	ctx := context.Background()

	now := time.Now().UTC()
	userA, userB := int64(1), int64(2)
	seed := []*audit.AuditEvent{
		{Timestamp: now, EventType: audit.EventTypeAuthzPermissionCheck, Status: audit.EventStatusSuccess, UserID: &userA, Role: "physician", IPAddress: "10.0.0.1"},
		{Timestamp: now, EventType: audit.EventTypeAuthzAccessDenied, Status: audit.EventStatusDenied, UserID: &userB, Role: "patient", IPAddress: "10.0.0.2"},
		{Timestamp: now, EventType: audit.EventTypeAuthTokenInvalid, Status: audit.EventStatusFailure, IPAddress: "10.0.0.2"},
	}
	for _, e := range seed {
		if err := logger.Log(ctx, e); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	stats, err := logger.GetStats(ctx, nil, nil)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalEvents != 3 {
		t.Fatalf("expected 3 events, got %d", stats.TotalEvents)
	}
	if stats.EventsByStatus[audit.EventStatusDenied] != 1 {
		t.Fatalf("expected 1 denied, got %d", stats.EventsByStatus[audit.EventStatusDenied])
	}
	if stats.EventsByRole["physician"] != 1 {
		t.Fatalf("expected 1 physician event, got %d", stats.EventsByRole["physician"])
	}
	if stats.UniqueUsers != 2 {
		t.Fatalf("expected 2 unique users, got %d", stats.UniqueUsers)
	}
	if stats.UniqueIPs != 2 {
		t.Fatalf("expected 2 unique IPs, got %d", stats.UniqueIPs)
	}
	if stats.AccessDenials != 1 {
		t.Fatalf("expected 1 denial, got %d", stats.AccessDenials)
	}
	if stats.InvalidTokenHits != 1 {
		t.Fatalf("expected 1 invalid token hit, got %d", stats.InvalidTokenHits)
	}
}
