package audit

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mindlab-health/caregrid/pkg/observability"
	"github.com/mindlab-health/caregrid/pkg/storage"
)

// Store provides methods for querying and managing audit events
type Store interface {
	// Search searches audit events based on filters
	Search(ctx context.Context, filter SearchFilter) ([]*AuditEvent, error)

	// Get retrieves a specific audit event by ID
	Get(ctx context.Context, id int64) (*AuditEvent, error)

	// GetStats retrieves audit statistics
	GetStats(ctx context.Context, startTime, endTime *time.Time) (*AuditStats, error)

	// Export exports audit events in the specified format
	Export(ctx context.Context, filter SearchFilter, format ExportFormat) ([]byte, error)

	// Prune removes audit events older than the retention period, optionally
	// archiving them first. Returns the number of events removed.
	Prune(ctx context.Context, policy PrunePolicy) (int64, error)
}

// DBStore implements Store on top of the DBLogger's database, with optional
// S3 archival. archive and metrics may be nil.
type DBStore struct {
	logger  *DBLogger
	archive *storage.ArchiveClient
	metrics *observability.Metrics
}

// NewDBStore creates a new database-backed audit store
func NewDBStore(logger *DBLogger, archive *storage.ArchiveClient, metrics *observability.Metrics) *DBStore {
	return &DBStore{
		logger:  logger,
		archive: archive,
		metrics: metrics,
	}
}

// Search searches audit events based on filters
func (s *DBStore) Search(ctx context.Context, filter SearchFilter) ([]*AuditEvent, error) {
	return s.logger.Search(ctx, filter)
}

// Get retrieves a specific audit event by ID
func (s *DBStore) Get(ctx context.Context, id int64) (*AuditEvent, error) {
	return s.logger.Get(ctx, id)
}

// GetStats retrieves audit statistics
func (s *DBStore) GetStats(ctx context.Context, startTime, endTime *time.Time) (*AuditStats, error) {
	return s.logger.GetStats(ctx, startTime, endTime)
}

// Export exports audit events in the specified format
func (s *DBStore) Export(ctx context.Context, filter SearchFilter, format ExportFormat) ([]byte, error) {
	events, err := s.logger.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportFormatCSV:
		return exportCSV(events)
	case ExportFormatNDJSON:
		return exportNDJSON(events)
	default:
		return exportJSON(events)
	}
}

// Prune removes audit events older than the retention period. With
// ArchiveFirst set and an archive client configured, aged-out events are
// exported as NDJSON to object storage before deletion; an archive failure
// aborts the prune so no event is lost.
func (s *DBStore) Prune(ctx context.Context, policy PrunePolicy) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -policy.RetentionDays)

	if policy.ArchiveFirst && s.archive != nil {
		if err := s.archiveBefore(ctx, cutoff); err != nil {
			return 0, fmt.Errorf("failed to archive before prune: %w", err)
		}
	}

	result, err := s.logger.db.ExecContext(ctx, "DELETE FROM audit_events WHERE timestamp < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit events: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.AuditPrunedTotal.Add(float64(pruned))
	}

	return pruned, nil
}

// archiveBefore exports all events older than the cutoff to object storage
// in batches.
func (s *DBStore) archiveBefore(ctx context.Context, cutoff time.Time) error {
	const batchSize = 5000

	offset := 0
	var archived int64
	for {
		events, err := s.logger.Search(ctx, SearchFilter{
			EndTime:   &cutoff,
			Limit:     batchSize,
			Offset:    offset,
			SortBy:    "id",
			SortOrder: "asc",
		})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			break
		}

		data, err := exportNDJSON(events)
		if err != nil {
			return err
		}

		key := fmt.Sprintf("audit/%s/events-%d.ndjson", cutoff.Format("2006-01-02"), offset)
		if err := s.archive.PutObject(ctx, key, bytes.NewReader(data), "application/x-ndjson"); err != nil {
			return err
		}

		archived += int64(len(events))
		if len(events) < batchSize {
			break
		}
		offset += batchSize
	}

	if s.metrics != nil {
		s.metrics.AuditArchivedTotal.Add(float64(archived))
	}

	return nil
}
