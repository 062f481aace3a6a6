package audit_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mindlab-health/caregrid/pkg/audit"
)

func seedStoreEvents(t *testing.T, logger *audit.DBLogger) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	events := []*audit.AuditEvent{
		{Timestamp: now.AddDate(0, 0, -120), EventType: audit.EventTypeAuthzPermissionCheck, Status: audit.EventStatusSuccess, Role: "physician"},
		{Timestamp: now.AddDate(0, 0, -100), EventType: audit.EventTypeAuthzAccessDenied, Status: audit.EventStatusDenied, Role: "patient"},
		{Timestamp: now, EventType: audit.EventTypeMatrixUpdated, Status: audit.EventStatusSuccess, Role: "admin"},
	}
	for _, e := range events {
		if err := logger.Log(ctx, e); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func TestStorePruneDeletesAgedEvents(t *testing.T) {
	logger := newDBLogger(t)
	store := audit.NewDBStore(logger, nil, nil)
	seedStoreEvents(t, logger)

	pruned, err := store.Prune(context.Background(), audit.PrunePolicy{RetentionDays: 90})
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected 2 pruned events, got %d", pruned)
	}

	remaining, err := store.Search(context.Background(), audit.SearchFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].EventType != audit.EventTypeMatrixUpdated {
		t.Fatalf("unexpected survivors: %+v", remaining)
	}
}

func TestStoreExportFormats(t *testing.T) {
	logger := newDBLogger(t)
	store := audit.NewDBStore(logger, nil, nil)
	seedStoreEvents(t, logger)
	ctx := context.Background()

	jsonData, err := store.Export(ctx, audit.SearchFilter{}, audit.ExportFormatJSON)
	if err != nil {
		t.Fatalf("json export failed: %v", err)
	}
	var decoded []*audit.AuditEvent
	if err := json.Unmarshal(jsonData, &decoded); err != nil {
		t.Fatalf("json export not parseable: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 exported events, got %d", len(decoded))
	}

	csvData, err := store.Export(ctx, audit.SearchFilter{}, audit.ExportFormatCSV)
	if err != nil {
		t.Fatalf("csv export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	if len(lines) != 4 { // header + 3 rows
		t.Fatalf("expected 4 CSV lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID,Timestamp,EventType") {
		t.Fatalf("unexpected CSV header %q", lines[0])
	}

	ndjsonData, err := store.Export(ctx, audit.SearchFilter{}, audit.ExportFormatNDJSON)
	if err != nil {
		t.Fatalf("ndjson export failed: %v", err)
	}
	ndLines := strings.Split(strings.TrimSpace(string(ndjsonData)), "\n")
	if len(ndLines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d", len(ndLines))
	}
	var first audit.AuditEvent
	if err := json.Unmarshal([]byte(ndLines[0]), &first); err != nil {
		t.Fatalf("NDJSON line not parseable: %v", err)
	}
}

func TestDefaultPrunePolicy(t *testing.T) {
	policy := audit.DefaultPrunePolicy()
	if policy.RetentionDays != 90 || !policy.ArchiveFirst {
		t.Fatalf("unexpected defaults: %+v", policy)
	}
}
