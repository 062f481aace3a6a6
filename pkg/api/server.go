package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mindlab-health/caregrid/pkg/audit"
	"github.com/mindlab-health/caregrid/pkg/auth"
	"github.com/mindlab-health/caregrid/pkg/httputil"
	"github.com/mindlab-health/caregrid/pkg/middleware"
	"github.com/mindlab-health/caregrid/pkg/observability"
	"github.com/mindlab-health/caregrid/pkg/rbac"
	"github.com/mindlab-health/caregrid/pkg/storage"
)

// Server wires the authorization API: session-facing permission and module
// endpoints, admin matrix management, and the audit query surface.
type Server struct {
	router       *mux.Router
	logger       *observability.Logger
	metrics      *observability.Metrics
	resolver     *rbac.Resolver
	store        *rbac.Store
	tokenManager *auth.TokenManager
	auditLogger  audit.Logger
	auditStore   audit.Store
}

// Deps carries the server's collaborators. Logger and Resolver are required;
// nil optional fields disable the corresponding feature.
type Deps struct {
	Logger       *observability.Logger
	Metrics      *observability.Metrics
	Resolver     *rbac.Resolver
	Store        *rbac.Store
	TokenManager *auth.TokenManager
	AuditLogger  audit.Logger
	AuditStore   audit.Store

	Health   *observability.HealthChecker
	Registry *prometheus.Registry

	// RateLimit enables in-memory rate limiting when set. RedisClient
	// upgrades it to the distributed limiter.
	RateLimit   *middleware.RateLimitConfig
	RedisClient *storage.RedisClient
}

// NewServer creates the API server and mounts all routes.
func NewServer(deps Deps) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		resolver:     deps.Resolver,
		store:        deps.Store,
		tokenManager: deps.TokenManager,
		auditLogger:  deps.AuditLogger,
		auditStore:   deps.AuditStore,
	}

	if s.auditLogger == nil {
		s.auditLogger = audit.NopLogger()
	}

	s.setupRoutes(deps)
	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes(deps Deps) {
	// Infrastructure endpoints sit outside the authenticated chain.
	if deps.Health != nil {
		s.router.HandleFunc("/health", deps.Health.Readiness).Methods(http.MethodGet)
		s.router.HandleFunc("/health/live", deps.Health.Liveness).Methods(http.MethodGet)
		s.router.HandleFunc("/health/ready", deps.Health.Readiness).Methods(http.MethodGet)
	}
	if deps.Registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	apiRouter := s.router.PathPrefix("/api/v1").Subrouter()

	apiRouter.Use(mux.MiddlewareFunc(httputil.RecoveryMiddleware(s.logger)))
	apiRouter.Use(middleware.RequestIDMiddleware)
	apiRouter.Use(mux.MiddlewareFunc(httputil.LoggingMiddleware(s.logger)))
	if s.metrics != nil {
		apiRouter.Use(mux.MiddlewareFunc(observability.HTTPMetricsMiddleware(s.metrics)))
	}
	if s.auditLogger != nil {
		apiRouter.Use(audit.NewMiddleware(s.auditLogger, false).Handler)
	}
	if s.tokenManager != nil {
		apiRouter.Use(middleware.NewAuthMiddleware(s.tokenManager, false, s.metrics).Handler)
	}
	// Rate limiting runs after auth so authenticated callers are keyed by
	// token prefix rather than IP.
	if deps.RateLimit != nil {
		if deps.RedisClient != nil {
			apiRouter.Use(middleware.NewDistributedRateLimitMiddleware(deps.RedisClient).Handler)
		} else {
			apiRouter.Use(middleware.NewRateLimitMiddlewareWithConfig(deps.RateLimit).Handler)
		}
	}

	// Session endpoints: any authenticated role.
	apiRouter.HandleFunc("/users/me/permissions", s.getMyPermissions).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me/modules", s.getMyModules).Methods(http.MethodGet)
	apiRouter.HandleFunc("/rbac/check-permission", s.checkPermission).Methods(http.MethodPost)

	// Admin endpoints: gated on the matrix-management permission, never on
	// the role name.
	pm := rbac.NewPermissionMiddleware(s.resolver)
	adminRouter := apiRouter.PathPrefix("").Subrouter()
	adminRouter.Use(pm.RequirePermission(rbac.PermissionUsersManageRoles))
	adminRouter.HandleFunc("/rbac/permissions", s.listCatalog).Methods(http.MethodGet)
	adminRouter.HandleFunc("/rbac/roles/{role}/permissions", s.getRolePermissions).Methods(http.MethodGet)
	adminRouter.HandleFunc("/rbac/roles/{role}/permissions", s.replaceRolePermissions).Methods(http.MethodPut)

	if s.auditStore != nil {
		audit.NewHandlers(s.auditStore).RegisterRoutes(adminRouter)
	}
}

// Handler returns the root handler, optionally wrapped with tracing.
func (s *Server) Handler(tracing bool) http.Handler {
	if tracing {
		return otelhttp.NewHandler(s.router, "caregrid-api")
	}
	return s.router
}
