package rbac

import "errors"

var (
	// ErrUnknownRole is returned when a role string is outside the closed set
	ErrUnknownRole = errors.New("unknown role")

	// ErrPermissionNotFound is returned when a permission name is not in the catalog
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrUnknownPermissions is returned by ReplaceRolePermissions when the
	// requested matrix row names permissions outside the catalog
	ErrUnknownPermissions = errors.New("unknown permissions in matrix row")
)
