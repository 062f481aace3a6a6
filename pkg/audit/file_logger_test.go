package audit_test

import (
	"context"
	"testing"

	"github.com/mindlab-health/caregrid/pkg/audit"
)

func TestFileLoggerRoundTrip(t *testing.T) {
	logger, err := audit.NewFileLogger(audit.FileLoggerConfig{
		BasePath: t.TempDir(),
		Rotate:   false,
	})
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	defer logger.Close()

	ctx := context.Background()
	if err := logger.LogPermissionCheck(ctx, "physician", "meals.create_plans", true); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if err := logger.LogAccessDenied(ctx, audit.ResourceTypeModule, "admin", "role lacks module"); err != nil {
		t.Fatalf("log failed: %v", err)
	}

	events, err := logger.ReadEvents(0)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventTypeAuthzPermissionCheck || events[0].Status != audit.EventStatusSuccess {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Status != audit.EventStatusDenied || events[1].Message != "role lacks module" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestFileLoggerRotation(t *testing.T) {
	dir := t.TempDir()
	logger, err := audit.NewFileLogger(audit.FileLoggerConfig{
		BasePath: dir,
		Rotate:   true,
		MaxSize:  64, // force rotation after the first event
		MaxFiles: 2,
	})
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	defer logger.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := logger.LogModulesResolved(ctx, "physician", []string{"meals", "nutrition", "patients"}); err != nil {
			t.Fatalf("log %d failed: %v", i, err)
		}
	}

	// The current file holds at most the last write after rotations.
	events, err := logger.ReadEvents(0)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(events) >= 3 {
		t.Fatalf("expected rotation to shed events from the active file, got %d", len(events))
	}
}

func TestDefaultFileLoggerConfig(t *testing.T) {
	config := audit.DefaultFileLoggerConfig()
	if config.BasePath != "/var/log/caregrid/audit" {
		t.Fatalf("unexpected base path %q", config.BasePath)
	}
	if !config.Rotate || config.MaxFiles != 10 {
		t.Fatalf("unexpected defaults: %+v", config)
	}
}
