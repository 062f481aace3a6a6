package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments for the authorization
// service. These mirror the Prometheus metrics for deployments shipping
// telemetry through an OTLP collector instead of a scrape endpoint.
type OTelMetrics struct {
	authzDecisionsTotal   metric.Int64Counter
	authzDecisionDuration metric.Float64Histogram
	permissionLoadsTotal  metric.Int64Counter
	moduleResolutions     metric.Int64Counter
	cacheHitsTotal        metric.Int64Counter
	cacheMissesTotal      metric.Int64Counter
	dbQueryDuration       metric.Float64Histogram
	dbQueriesTotal        metric.Int64Counter
}

// NewOTelMetrics creates a new OTel metrics instance
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/mindlab-health/caregrid")

	m := &OTelMetrics{}
	var err error

	m.authzDecisionsTotal, err = meter.Int64Counter(
		"authz.decisions",
		metric.WithDescription("Total number of authorization decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authz_decisions counter: %w", err)
	}

	m.authzDecisionDuration, err = meter.Float64Histogram(
		"authz.decision.duration",
		metric.WithDescription("Authorization decision duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authz_decision_duration histogram: %w", err)
	}

	m.permissionLoadsTotal, err = meter.Int64Counter(
		"authz.permission.loads",
		metric.WithDescription("Total number of permission set loads"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create permission_loads counter: %w", err)
	}

	m.moduleResolutions, err = meter.Int64Counter(
		"authz.module.resolutions",
		metric.WithDescription("Total number of accessible-module resolutions"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create module_resolutions counter: %w", err)
	}

	m.cacheHitsTotal, err = meter.Int64Counter(
		"authz.cache.hits",
		metric.WithDescription("Total number of decision cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache_hits counter: %w", err)
	}

	m.cacheMissesTotal, err = meter.Int64Counter(
		"authz.cache.misses",
		metric.WithDescription("Total number of decision cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache_misses counter: %w", err)
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_query_duration histogram: %w", err)
	}

	m.dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create db_queries_total counter: %w", err)
	}

	return m, nil
}

// RecordDecision records one authorization decision
func (m *OTelMetrics) RecordDecision(ctx context.Context, role, kind string, allowed bool, duration time.Duration) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	attrs := []attribute.KeyValue{
		attribute.String("authz.role", role),
		attribute.String("authz.kind", kind),
		attribute.String("authz.outcome", outcome),
	}

	m.authzDecisionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.authzDecisionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordPermissionLoad records one permission set load
func (m *OTelMetrics) RecordPermissionLoad(ctx context.Context, role string, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("authz.role", role),
		attribute.Bool("error", err != nil),
	}
	m.permissionLoadsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordModuleResolution records one accessible-module resolution
func (m *OTelMetrics) RecordModuleResolution(ctx context.Context, role string, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("authz.role", role),
		attribute.Bool("error", err != nil),
	}
	m.moduleResolutions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a decision cache hit
func (m *OTelMetrics) RecordCacheHit(ctx context.Context, tier string) {
	m.cacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

// RecordCacheMiss records a decision cache miss
func (m *OTelMetrics) RecordCacheMiss(ctx context.Context, tier string) {
	m.cacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

// RecordDBQuery records a database query metric
func (m *OTelMetrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.Bool("error", err != nil),
	}

	m.dbQueriesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dbQueryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
