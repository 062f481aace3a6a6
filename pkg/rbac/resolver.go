package rbac

import (
	"context"
	"fmt"

	"github.com/mindlab-health/caregrid/pkg/observability"
)

// Resolver answers the three authorization questions the API serves:
// which permissions a role holds, which modules it may see, and whether it
// holds one specific permission. Admin is materialized to the full catalog
// here, on the server, so the wire contract stays explicit and clients
// never have to special-case the role.
type Resolver struct {
	store   *Store
	cache   *DecisionCache
	metrics *observability.Metrics
}

// NewResolver creates a resolver over the store. cache and metrics may be
// nil; resolution then always goes to the database.
func NewResolver(store *Store, cache *DecisionCache, metrics *observability.Metrics) *Resolver {
	return &Resolver{store: store, cache: cache, metrics: metrics}
}

// PermissionsForRole returns the role's permission names. Admin receives
// every catalog permission regardless of its matrix row.
func (r *Resolver) PermissionsForRole(ctx context.Context, role Role) ([]string, error) {
	if !role.Valid() {
		return nil, ErrUnknownRole
	}

	key := cacheKeyPermissions + string(role)
	if r.cache != nil {
		if names, ok := r.cache.Get(ctx, key); ok {
			return names, nil
		}
	}

	var names []string
	if role == RoleAdmin {
		perms, err := r.store.ListPermissions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize admin permissions: %w", err)
		}
		names = make([]string, len(perms))
		for i, p := range perms {
			names[i] = p.Name
		}
	} else {
		var err error
		names, err = r.store.RolePermissionNames(ctx, role)
		if err != nil {
			return nil, err
		}
	}
	if names == nil {
		names = []string{}
	}

	if r.cache != nil {
		r.cache.Set(ctx, key, names)
	}
	return names, nil
}

// HasPermission reports whether the role holds the named permission.
// Unknown names simply resolve to false.
func (r *Resolver) HasPermission(ctx context.Context, role Role, name string) (bool, error) {
	names, err := r.PermissionsForRole(ctx, role)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// AccessibleModules derives the role's module list from its permissions:
// the distinct module prefixes of the granted permissions, ordered by the
// module catalog. Admin additionally receives the management modules ahead
// of the derived list.
func (r *Resolver) AccessibleModules(ctx context.Context, role Role) ([]string, error) {
	if !role.Valid() {
		return nil, ErrUnknownRole
	}

	key := cacheKeyModules + string(role)
	if r.cache != nil {
		if modules, ok := r.cache.Get(ctx, key); ok {
			return modules, nil
		}
	}

	names, err := r.PermissionsForRole(ctx, role)
	if err != nil {
		return nil, err
	}

	granted := make(map[string]bool, len(names))
	for _, name := range names {
		module, _ := SplitPermissionName(name)
		granted[module] = true
	}

	modules := []string{}
	seen := make(map[string]bool)
	if role == RoleAdmin {
		for _, m := range managementModules {
			modules = append(modules, m)
			seen[m] = true
		}
	}
	for _, m := range ModuleCatalog {
		if granted[m] && !seen[m] {
			modules = append(modules, m)
			seen[m] = true
		}
	}

	if r.cache != nil {
		r.cache.Set(ctx, key, modules)
	}
	return modules, nil
}

// Invalidate drops cached decisions after a matrix write. A zero role
// invalidates everything (and always invalidates admin, whose materialized
// set tracks the whole catalog).
func (r *Resolver) Invalidate(ctx context.Context, role Role) error {
	if r.cache == nil {
		return nil
	}
	if role == "" {
		return r.cache.InvalidateAll(ctx)
	}
	if err := r.cache.InvalidateRole(ctx, role); err != nil {
		return err
	}
	if role != RoleAdmin {
		return r.cache.InvalidateRole(ctx, RoleAdmin)
	}
	return nil
}

// Warm precomputes and caches both decisions for every role. The
// aggregator calls this after pruning and on its warmup schedule.
func (r *Resolver) Warm(ctx context.Context) error {
	for _, role := range Roles() {
		if _, err := r.PermissionsForRole(ctx, role); err != nil {
			return fmt.Errorf("failed to warm permissions for %s: %w", role, err)
		}
		if _, err := r.AccessibleModules(ctx, role); err != nil {
			return fmt.Errorf("failed to warm modules for %s: %w", role, err)
		}
	}
	return nil
}
