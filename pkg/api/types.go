package api

import "github.com/mindlab-health/caregrid/pkg/rbac"

// PermissionsResponse is the wire shape for GET /api/v1/users/me/permissions.
// Permissions is always present, possibly empty; a role with no grants is a
// valid, authorized state.
type PermissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// ModulesResponse is the wire shape for GET /api/v1/users/me/modules.
type ModulesResponse struct {
	UserID            int64    `json:"user_id"`
	Role              string   `json:"role"`
	AccessibleModules []string `json:"accessible_modules"`
}

// CheckPermissionRequest is the body for POST /api/v1/rbac/check-permission.
type CheckPermissionRequest struct {
	Permission string `json:"permission"`
}

// CheckPermissionResponse reports a single permission decision.
type CheckPermissionResponse struct {
	UserID        int64  `json:"user_id"`
	Permission    string `json:"permission"`
	HasPermission bool   `json:"has_permission"`
}

// CatalogResponse groups the permission catalog by module for the admin UI.
type CatalogResponse struct {
	Modules []ModulePermissions `json:"modules"`
	Total   int                 `json:"total"`
}

// ModulePermissions is one module's slice of the catalog.
type ModulePermissions struct {
	Module      string            `json:"module"`
	Permissions []rbac.Permission `json:"permissions"`
}

// RolePermissionsResponse is one role's row of the matrix.
type RolePermissionsResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// ReplaceRolePermissionsRequest is the body for PUT
// /api/v1/rbac/roles/{role}/permissions.
type ReplaceRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}
