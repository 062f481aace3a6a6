package api

import (
	"errors"
	"net/http"

	"github.com/mindlab-health/caregrid/pkg/httputil"
	"github.com/mindlab-health/caregrid/pkg/rbac"
)

// listCatalog handles GET /api/v1/rbac/permissions. Permissions are grouped
// by module and returned in catalog order so admin tooling can render the
// matrix without re-sorting.
func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	perms, err := s.store.ListPermissions(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("catalog listing failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	byModule := make(map[string][]rbac.Permission, len(rbac.ModuleCatalog))
	for _, p := range perms {
		byModule[p.Module] = append(byModule[p.Module], p)
	}

	resp := CatalogResponse{Modules: make([]ModulePermissions, 0, len(byModule)), Total: len(perms)}
	for _, module := range rbac.ModuleCatalog {
		if group, ok := byModule[module]; ok {
			resp.Modules = append(resp.Modules, ModulePermissions{Module: module, Permissions: group})
			delete(byModule, module)
		}
	}
	// Permissions seeded outside the shipped module list still show up,
	// after the known modules.
	for _, p := range perms {
		if group, ok := byModule[p.Module]; ok {
			resp.Modules = append(resp.Modules, ModulePermissions{Module: p.Module, Permissions: group})
			delete(byModule, p.Module)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// getRolePermissions handles GET /api/v1/rbac/roles/{role}/permissions.
func (s *Server) getRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleName, ok := httputil.ParsePathStringOrError(w, r, "role")
	if !ok {
		return
	}

	role, err := rbac.ParseRole(roleName)
	if err != nil {
		httputil.WriteNotFoundError(w, "unknown role")
		return
	}

	names, err := s.store.RolePermissionNames(r.Context(), role)
	if err != nil {
		s.logger.WithError(err).WithField("role", string(role)).Error("role permission lookup failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RolePermissionsResponse{
		Role:        string(role),
		Permissions: names,
	})
}

// replaceRolePermissions handles PUT /api/v1/rbac/roles/{role}/permissions.
// The replacement is atomic, validated against the catalog, cache-invalidated,
// and audited with the before and after permission sets.
func (s *Server) replaceRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleName, ok := httputil.ParsePathStringOrError(w, r, "role")
	if !ok {
		return
	}

	role, err := rbac.ParseRole(roleName)
	if err != nil {
		httputil.WriteNotFoundError(w, "unknown role")
		return
	}

	var req ReplaceRolePermissionsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Permissions == nil {
		httputil.WriteValidationError(w, "permissions is required")
		return
	}

	before, err := s.store.RolePermissionNames(r.Context(), role)
	if err != nil {
		s.logger.WithError(err).WithField("role", string(role)).Error("role permission lookup failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	if err := s.store.ReplaceRolePermissions(r.Context(), role, req.Permissions); err != nil {
		if errors.Is(err, rbac.ErrUnknownPermissions) {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		s.logger.WithError(err).WithField("role", string(role)).Error("matrix replacement failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	if err := s.resolver.Invalidate(r.Context(), role); err != nil {
		s.logger.WithError(err).WithField("role", string(role)).Warn("cache invalidation failed, entries will expire by TTL")
	}

	after, err := s.store.RolePermissionNames(r.Context(), role)
	if err != nil {
		s.logger.WithError(err).WithField("role", string(role)).Error("role permission readback failed")
		httputil.WriteServiceUnavailable(w, "authorization unavailable")
		return
	}

	_ = s.auditLogger.LogMatrixUpdated(r.Context(), string(role), before, after)

	httputil.WriteJSON(w, http.StatusOK, RolePermissionsResponse{
		Role:        string(role),
		Permissions: after,
	})
}
