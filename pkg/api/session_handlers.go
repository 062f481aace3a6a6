package api

import (
	"net/http"

	"github.com/mindlab-health/caregrid/pkg/httputil"
	"github.com/mindlab-health/caregrid/pkg/middleware"
	"github.com/mindlab-health/caregrid/pkg/rbac"
)

// getMyPermissions handles GET /api/v1/users/me/permissions. The permission
// list is always materialized server-side; admin sessions receive the full
// catalog rather than a marker the client would have to interpret.
func (s *Server) getMyPermissions(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	role, err := rbac.ParseRole(authCtx.User.Role)
	if err != nil {
		httputil.WriteForbidden(w, "unknown role")
		return
	}

	permissions, err := s.resolver.PermissionsForRole(r.Context(), role)
	if err != nil {
		s.logger.WithError(err).WithField("role", string(role)).Error("permission resolution failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, PermissionsResponse{
		UserID:      authCtx.User.ID,
		Username:    authCtx.User.Username,
		Role:        string(role),
		Permissions: permissions,
	})
}

// getMyModules handles GET /api/v1/users/me/modules.
func (s *Server) getMyModules(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	role, err := rbac.ParseRole(authCtx.User.Role)
	if err != nil {
		httputil.WriteForbidden(w, "unknown role")
		return
	}

	modules, err := s.resolver.AccessibleModules(r.Context(), role)
	if err != nil {
		s.logger.WithError(err).WithField("role", string(role)).Error("module resolution failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	_ = s.auditLogger.LogModulesResolved(r.Context(), string(role), modules)

	httputil.WriteJSON(w, http.StatusOK, ModulesResponse{
		UserID:            authCtx.User.ID,
		Role:              string(role),
		AccessibleModules: modules,
	})
}

// checkPermission handles POST /api/v1/rbac/check-permission. Every decision
// is audited, allowed or not.
func (s *Server) checkPermission(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req CheckPermissionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Permission, "permission") {
		return
	}

	role, err := rbac.ParseRole(authCtx.User.Role)
	if err != nil {
		httputil.WriteForbidden(w, "unknown role")
		return
	}

	allowed, err := s.resolver.HasPermission(r.Context(), role, req.Permission)
	if err != nil {
		s.logger.WithError(err).WithField("permission", req.Permission).Error("permission check failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	_ = s.auditLogger.LogPermissionCheck(r.Context(), string(role), req.Permission, allowed)

	httputil.WriteJSON(w, http.StatusOK, CheckPermissionResponse{
		UserID:        authCtx.User.ID,
		Permission:    req.Permission,
		HasPermission: allowed,
	})
}
