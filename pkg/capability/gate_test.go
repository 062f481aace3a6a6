package capability

import (
	"context"
	"testing"

	"github.com/mindlab-health/caregrid/pkg/session"
)

func TestGate_CanPerform_AllowList(t *testing.T) {
	sess := session.MustReadySession(t, session.RolePhysician,
		[]session.Permission{
			"health_records.create",
			"health_records.edit_assigned",
			"earnings.view_own",
		},
		[]string{"patients", "health_records", "earnings"},
	)
	gate := NewGate(sess, nil)

	tests := []struct {
		action Action
		want   bool
	}{
		{ActionCreateRecord, true},
		{ActionEditRecord, true},
		{ActionViewEarnings, true},
		{ActionDeleteRecord, false},     // mapped, permission not granted
		{ActionManageRoles, false},      // mapped, permission not granted
		{Action("export_everything"), false}, // unmapped: denied for everyone
		{Action(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := gate.CanPerform(tt.action); got != tt.want {
				t.Errorf("CanPerform(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestGate_UnmappedActionDeniedEvenWithEveryPermission(t *testing.T) {
	perms := make([]session.Permission, 0, len(DefaultBindings()))
	for _, p := range DefaultBindings() {
		perms = append(perms, p)
	}

	sess := session.MustReadySession(t, session.RoleAdmin, perms, []string{"admin"})
	gate := NewGate(sess, nil)

	if gate.CanPerform(Action("wipe_database")) {
		t.Error("unmapped action allowed; the table is an allow-list, not a deny-list")
	}
}

func TestGate_CanAccessModule(t *testing.T) {
	sess := session.MustReadySession(t, session.RoleTherapist,
		[]session.Permission{"patients.view_assigned"},
		[]string{"patients", "health_records", "meals"},
	)
	gate := NewGate(sess, nil)

	if !gate.CanAccessModule("health_records") {
		t.Error("CanAccessModule(health_records) = false, want true")
	}
	if gate.CanAccessModule("commission") {
		t.Error("CanAccessModule(commission) = true, want false")
	}
	if gate.CanAccessModule("") {
		t.Error("CanAccessModule(\"\") = true, want false")
	}
}

func TestGate_IsAdminIsPresentationalOnly(t *testing.T) {
	// Admin session whose permission grant lacks users.manage_roles
	sess := session.MustReadySession(t, session.RoleAdmin,
		[]session.Permission{"patients.view_all"},
		[]string{"users", "admin"},
	)
	gate := NewGate(sess, nil)

	if !gate.IsAdmin() {
		t.Fatal("IsAdmin() = false for admin role")
	}

	// The badge grants nothing
	if gate.CanPerform(ActionManageRoles) {
		t.Error("CanPerform(manage_roles) = true without the permission; role must not imply grants")
	}

	physician := session.MustReadySession(t, session.RolePhysician, nil, nil)
	if NewGate(physician, nil).IsAdmin() {
		t.Error("IsAdmin() = true for physician")
	}
}

func TestGate_FailsClosedBeforeReady(t *testing.T) {
	ctrl := session.NewController(session.NewStaticClient())
	gate := NewGate(ctrl, nil)

	if gate.CanAccessModule("patients") {
		t.Error("CanAccessModule = true before ready")
	}
	if gate.CanPerform(ActionCreateRecord) {
		t.Error("CanPerform = true before ready")
	}
	if gate.IsAdmin() {
		t.Error("IsAdmin = true before ready")
	}
}

func TestGate_ReevaluatesLiveState(t *testing.T) {
	client := session.NewStaticClient()
	client.Grant("caregrid_tok1",
		session.PermissionGrant{
			Role:        session.RolePhysician,
			Permissions: []session.Permission{"health_records.create"},
		},
		session.ModuleGrant{Role: session.RolePhysician, Modules: []string{"health_records"}},
	)

	ctrl := session.NewController(client)
	gate := NewGate(ctrl, nil)

	// Before login: denied
	if gate.CanPerform(ActionCreateRecord) {
		t.Fatal("CanPerform = true before login")
	}

	if err := ctrl.Begin(context.Background(), "caregrid_tok1"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// Same gate, no rebind: allowed now
	if !gate.CanPerform(ActionCreateRecord) {
		t.Error("CanPerform = false after login")
	}
	if !gate.CanAccessModule("health_records") {
		t.Error("CanAccessModule = false after login")
	}

	ctrl.Logout()

	// Denied again after logout
	if gate.CanPerform(ActionCreateRecord) {
		t.Error("CanPerform = true after logout")
	}
	if gate.CanAccessModule("health_records") {
		t.Error("CanAccessModule = true after logout")
	}
}

func TestDefaultBindings_PermissionsWellFormed(t *testing.T) {
	for action, perm := range DefaultBindings() {
		if !perm.Valid() {
			t.Errorf("binding %q -> %q is not resource.action form", action, perm)
		}
	}
}
