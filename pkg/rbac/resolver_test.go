package rbac

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(NewSeededTestStore(t), nil, nil)
}

func TestPermissionsForRoleAdminMaterialized(t *testing.T) {
	resolver := newTestResolver(t)

	names, err := resolver.PermissionsForRole(context.Background(), RoleAdmin)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	// Admin gets the full catalog, including permissions its own matrix row
	// never names (patient-only ones, for example).
	if len(names) != len(permissionDescriptions) {
		t.Fatalf("expected full catalog (%d), got %d", len(permissionDescriptions), len(names))
	}
	found := false
	for _, n := range names {
		if n == "health_records.view_own" {
			found = true
		}
	}
	if !found {
		t.Fatal("admin set missing a catalog permission outside its matrix row")
	}
}

func TestPermissionsForRolePartnerEmpty(t *testing.T) {
	resolver := newTestResolver(t)

	names, err := resolver.PermissionsForRole(context.Background(), RolePartner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if names == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(names) != 0 {
		t.Fatalf("partner should hold nothing, got %v", names)
	}
}

func TestPermissionsForRoleUnknown(t *testing.T) {
	resolver := newTestResolver(t)

	if _, err := resolver.PermissionsForRole(context.Background(), Role("superuser")); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestHasPermission(t *testing.T) {
	resolver := newTestResolver(t)
	ctx := context.Background()

	tests := []struct {
		role Role
		perm string
		want bool
	}{
		{RolePhysician, "nutrition.create_plans", true},
		{RoleTherapist, "nutrition.create_plans", false},
		{RoleTherapist, "patients.view_assigned", true},
		{RoleHealthCoach, "meals.edit_plans", true},
		{RolePatient, "health_records.view_own", true},
		{RolePatient, "health_records.view_all", false},
		{RolePartner, "commission.view", false},
		{RoleAdmin, PermissionUsersManageRoles, true},
		{RolePhysician, "not.a_permission", false},
	}
	for _, tt := range tests {
		got, err := resolver.HasPermission(ctx, tt.role, tt.perm)
		if err != nil {
			t.Fatalf("%s/%s: %v", tt.role, tt.perm, err)
		}
		if got != tt.want {
			t.Errorf("%s has %s = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestAccessibleModulesDerivation(t *testing.T) {
	resolver := newTestResolver(t)
	ctx := context.Background()

	// Physician permissions span meals, nutrition, patients, health_records,
	// earnings; the list follows catalog order.
	modules, err := resolver.AccessibleModules(ctx, RolePhysician)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := []string{"meals", "nutrition", "patients", "health_records", "earnings"}
	if !reflect.DeepEqual(modules, want) {
		t.Fatalf("physician modules = %v, want %v", modules, want)
	}
}

func TestAccessibleModulesAdminManagementFirst(t *testing.T) {
	resolver := newTestResolver(t)

	modules, err := resolver.AccessibleModules(context.Background(), RoleAdmin)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := []string{
		"users", "analytics", "security", "settings", "admin",
		"meals", "nutrition", "patients", "health_records", "earnings", "commission",
	}
	if !reflect.DeepEqual(modules, want) {
		t.Fatalf("admin modules = %v, want %v", modules, want)
	}
}

func TestAccessibleModulesPartnerEmpty(t *testing.T) {
	resolver := newTestResolver(t)

	modules, err := resolver.AccessibleModules(context.Background(), RolePartner)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if modules == nil || len(modules) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", modules)
	}
}

func TestResolverWarm(t *testing.T) {
	store := NewSeededTestStore(t)
	cache := NewDecisionCache(64, 0, nil, nil)
	resolver := NewResolver(store, cache, nil)

	if err := resolver.Warm(context.Background()); err != nil {
		t.Fatalf("warm failed: %v", err)
	}

	for _, role := range Roles() {
		if _, ok := cache.Get(context.Background(), cacheKeyPermissions+string(role)); !ok {
			t.Errorf("permissions for %s not warmed", role)
		}
		if _, ok := cache.Get(context.Background(), cacheKeyModules+string(role)); !ok {
			t.Errorf("modules for %s not warmed", role)
		}
	}
}

func TestResolverInvalidateOnMatrixWrite(t *testing.T) {
	store := NewSeededTestStore(t)
	cache := NewDecisionCache(64, 0, nil, nil)
	resolver := NewResolver(store, cache, nil)
	ctx := context.Background()

	before, err := resolver.HasPermission(ctx, RolePatient, "meals.view_own")
	if err != nil || !before {
		t.Fatalf("expected patient to hold meals.view_own, got %v/%v", before, err)
	}

	if err := store.ReplaceRolePermissions(ctx, RolePatient, []string{"health_records.view_own"}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := resolver.Invalidate(ctx, RolePatient); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	after, err := resolver.HasPermission(ctx, RolePatient, "meals.view_own")
	if err != nil {
		t.Fatalf("resolve after invalidate failed: %v", err)
	}
	if after {
		t.Fatal("stale cached decision survived invalidation")
	}
}
