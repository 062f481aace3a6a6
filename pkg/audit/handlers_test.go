package audit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/mindlab-health/caregrid/pkg/audit"
)

func newHandlersFixture(t *testing.T) (*mux.Router, *audit.DBLogger) {
	t.Helper()
	logger := newDBLogger(t)
	store := audit.NewDBStore(logger, nil, nil)
	router := mux.NewRouter()
	audit.NewHandlers(store).RegisterRoutes(router)
	return router, logger
}

func TestListEventsEndpoint(t *testing.T) {
	router, logger := newHandlersFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := logger.LogPermissionCheck(ctx, "physician", "meals.view_assigned", true); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Events []*audit.AuditEvent `json:"events"`
		Count  int                 `json:"count"`
		Limit  int                 `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not parseable: %v", err)
	}
	if body.Count != 2 || body.Limit != 2 {
		t.Fatalf("expected 2 events with limit 2, got count=%d limit=%d", body.Count, body.Limit)
	}
}

func TestGetEventEndpoint(t *testing.T) {
	router, logger := newHandlersFixture(t)

	event := &audit.AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventTypeMatrixUpdated,
		Status:    audit.EventStatusSuccess,
		Role:      "admin",
	}
	if err := logger.Log(context.Background(), event); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/audit/events/%d", event.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got audit.AuditEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response not parseable: %v", err)
	}
	if got.ID != event.ID || got.EventType != audit.EventTypeMatrixUpdated {
		t.Fatalf("unexpected event: %+v", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events/99999", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown event, got %d", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	router, logger := newHandlersFixture(t)

	if err := logger.LogPermissionCheck(context.Background(), "patient", "meals.view_own", true); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/export?format=csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/export?format=parquet", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported format, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, logger := newHandlersFixture(t)
	ctx := context.Background()

	if err := logger.LogPermissionCheck(ctx, "patient", "health_records.delete", false); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats audit.AuditStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("response not parseable: %v", err)
	}
	if stats.TotalEvents != 1 || stats.AccessDenials != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
