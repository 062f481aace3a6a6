package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal    *prometheus.CounterVec
	AuthzDecisionDuration  *prometheus.HistogramVec
	PermissionLoadsTotal   *prometheus.CounterVec
	ModuleResolutionsTotal *prometheus.CounterVec
	MatrixUpdatesTotal     *prometheus.CounterVec
	TokenValidationsTotal  *prometheus.CounterVec

	// Decision cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
	DBQueryDuration     *prometheus.HistogramVec

	// Redis metrics
	RedisCommandsTotal   *prometheus.CounterVec
	RedisCommandDuration *prometheus.HistogramVec

	// Audit metrics
	AuditEventsTotal   *prometheus.CounterVec
	AuditPrunedTotal   prometheus.Counter
	AuditArchivedTotal prometheus.Counter

	// Business metrics
	RolesSeeded      prometheus.Gauge
	PermissionsTotal prometheus.Gauge
	APITokensActive  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caregrid_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caregrid_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		// Authorization metrics
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"role", "kind", "outcome"},
		),
		AuthzDecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caregrid_authz_decision_duration_seconds",
				Help:    "Authorization decision duration in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"kind"},
		),
		PermissionLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_permission_loads_total",
				Help: "Total number of per-session permission set loads",
			},
			[]string{"role", "status"},
		),
		ModuleResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_module_resolutions_total",
				Help: "Total number of accessible-module resolutions",
			},
			[]string{"role", "status"},
		),
		MatrixUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_matrix_updates_total",
				Help: "Total number of role-permission matrix updates",
			},
			[]string{"role", "source"},
		),
		TokenValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_token_validations_total",
				Help: "Total number of bearer token validations",
			},
			[]string{"status"},
		),

		// Decision cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_cache_hits_total",
				Help: "Total number of decision cache hits",
			},
			[]string{"cache_tier"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_cache_misses_total",
				Help: "Total number of decision cache misses",
			},
			[]string{"cache_tier"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_cache_invalidations_total",
				Help: "Total number of decision cache invalidations",
			},
			[]string{"reason"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "caregrid_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "caregrid_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caregrid_db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisCommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_redis_commands_total",
				Help: "Total number of Redis commands",
			},
			[]string{"command", "status"},
		),
		RedisCommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caregrid_redis_command_duration_seconds",
				Help:    "Redis command duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"command"},
		),

		// Audit metrics
		AuditEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caregrid_audit_events_total",
				Help: "Total number of audit events recorded",
			},
			[]string{"event_type", "status"},
		),
		AuditPrunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "caregrid_audit_pruned_total",
				Help: "Total number of audit events pruned by retention",
			},
		),
		AuditArchivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "caregrid_audit_archived_total",
				Help: "Total number of audit events archived to object storage",
			},
		),

		// Business metrics
		RolesSeeded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "caregrid_roles_seeded",
				Help: "Number of roles with a seeded permission matrix row",
			},
		),
		PermissionsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "caregrid_permissions_total",
				Help: "Total number of permissions in the catalog",
			},
		),
		APITokensActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "caregrid_api_tokens_active",
				Help: "Number of active API tokens",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.AuthzDecisionsTotal,
		m.AuthzDecisionDuration,
		m.PermissionLoadsTotal,
		m.ModuleResolutionsTotal,
		m.MatrixUpdatesTotal,
		m.TokenValidationsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBQueryDuration,
		m.RedisCommandsTotal,
		m.RedisCommandDuration,
		m.AuditEventsTotal,
		m.AuditPrunedTotal,
		m.AuditArchivedTotal,
		m.RolesSeeded,
		m.PermissionsTotal,
		m.APITokensActive,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
