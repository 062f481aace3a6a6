package rbac

import (
	"context"
	"database/sql"
	"fmt"
)

// Store persists the permission catalog and the role-permission matrix.
type Store struct {
	db *sql.DB
}

// NewStore creates a new RBAC store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// UpsertPermission inserts a catalog row or updates the description of an
// existing one. The ID is filled in either way.
func (s *Store) UpsertPermission(ctx context.Context, perm *Permission) error {
	if perm.Module == "" || perm.Action == "" {
		perm.Module, perm.Action = SplitPermissionName(perm.Name)
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO permissions (name, description, module, action)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`, perm.Name, perm.Description, perm.Module, perm.Action).Scan(&perm.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert permission %s: %w", perm.Name, err)
	}
	return nil
}

// GetPermission retrieves a catalog row by name.
func (s *Store) GetPermission(ctx context.Context, name string) (*Permission, error) {
	var perm Permission
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, ''), module, action
		FROM permissions
		WHERE name = $1
	`, name).Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Module, &perm.Action)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return &perm, nil
}

// ListPermissions returns the full catalog ordered by module, then name.
func (s *Store) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), module, action
		FROM permissions
		ORDER BY module ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Module, &perm.Action); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// DeletePermission removes a catalog row. Matrix rows referencing it go with
// it via the foreign key.
func (s *Store) DeletePermission(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM permissions WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrPermissionNotFound, name)
	}
	return nil
}

// Grant adds one permission to a role's matrix row. Granting an already
// granted permission is a no-op.
func (s *Store) Grant(ctx context.Context, role Role, permissionID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO role_permissions (role, permission_id)
		VALUES ($1, $2)
		ON CONFLICT (role, permission_id) DO NOTHING
	`, string(role), permissionID)
	if err != nil {
		return fmt.Errorf("failed to grant permission to %s: %w", role, err)
	}
	return nil
}

// Revoke removes one permission from a role's matrix row.
func (s *Store) Revoke(ctx context.Context, role Role, permissionID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM role_permissions WHERE role = $1 AND permission_id = $2
	`, string(role), permissionID)
	if err != nil {
		return fmt.Errorf("failed to revoke permission from %s: %w", role, err)
	}
	return nil
}

// RolePermissions returns the role's granted catalog rows ordered by module,
// then name.
func (s *Store) RolePermissions(ctx context.Context, role Role) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.description, ''), p.module, p.action
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role = $1
		ORDER BY p.module ASC, p.name ASC
	`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Module, &perm.Action); err != nil {
			return nil, fmt.Errorf("failed to scan role permission: %w", err)
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// RolePermissionNames returns just the granted names, in the same order as
// RolePermissions.
func (s *Store) RolePermissionNames(ctx context.Context, role Role) ([]string, error) {
	perms, err := s.RolePermissions(ctx, role)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.Name
	}
	return names, nil
}

// ReplaceRolePermissions swaps a role's entire matrix row in one
// transaction. Every requested name must already exist in the catalog;
// unknown names fail the whole replacement with ErrUnknownPermissions.
func (s *Store) ReplaceRolePermissions(ctx context.Context, role Role, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(names))
	var unknown []string
	for _, name := range names {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM permissions WHERE name = $1`, name).Scan(&id)
		if err == sql.ErrNoRows {
			unknown = append(unknown, name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to look up permission %s: %w", name, err)
		}
		ids = append(ids, id)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %v", ErrUnknownPermissions, unknown)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role = $1`, string(role)); err != nil {
		return fmt.Errorf("failed to clear matrix row for %s: %w", role, err)
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_permissions (role, permission_id)
			VALUES ($1, $2)
			ON CONFLICT (role, permission_id) DO NOTHING
		`, string(role), id); err != nil {
			return fmt.Errorf("failed to write matrix row for %s: %w", role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit matrix row for %s: %w", role, err)
	}
	return nil
}

// SeededRoles returns the distinct roles with at least one grant.
func (s *Store) SeededRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT role FROM role_permissions ORDER BY role ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeded roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, Role(role))
	}
	return roles, rows.Err()
}

// CountPermissions returns the catalog size, for the permissions gauge.
func (s *Store) CountPermissions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM permissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count permissions: %w", err)
	}
	return n, nil
}
