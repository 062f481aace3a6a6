package session

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"physician", RolePhysician, false},
		{"therapist", RoleTherapist, false},
		{"health_coach", RoleHealthCoach, false},
		{"patient", RolePatient, false},
		{"partner", RolePartner, false},
		{"", RoleUnset, true},
		{"superuser", RoleUnset, true},
		{"Admin", RoleUnset, true},
		{"physician ", RoleUnset, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoles_ClosedSet(t *testing.T) {
	roles := Roles()
	if len(roles) != 6 {
		t.Fatalf("Roles() returned %d roles, want 6", len(roles))
	}

	for _, role := range roles {
		if !role.Valid() {
			t.Errorf("Roles() contains invalid role %q", role)
		}
	}

	if RoleUnset.Valid() {
		t.Error("RoleUnset.Valid() = true, want false")
	}
}

func TestPermission_ResourceAction(t *testing.T) {
	tests := []struct {
		perm         Permission
		wantResource string
		wantAction   string
	}{
		{"health_records.view_assigned", "health_records", "view_assigned"},
		{"patients.view_all", "patients", "view_all"},
		{"users.manage_roles", "users", "manage_roles"},
		{"nounact", "nounact", ""},
		{"a.b.c", "a", "b.c"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.perm), func(t *testing.T) {
			if got := tt.perm.Resource(); got != tt.wantResource {
				t.Errorf("Resource() = %q, want %q", got, tt.wantResource)
			}
			if got := tt.perm.Action(); got != tt.wantAction {
				t.Errorf("Action() = %q, want %q", got, tt.wantAction)
			}
		})
	}
}

func TestPermission_Valid(t *testing.T) {
	if !Permission("earnings.view_own").Valid() {
		t.Error("expected earnings.view_own to be valid")
	}
	if Permission("earnings").Valid() {
		t.Error("expected bare resource to be invalid")
	}
	if Permission("").Valid() {
		t.Error("expected empty permission to be invalid")
	}
	if Permission(".view").Valid() {
		t.Error("expected permission with empty resource to be invalid")
	}
}

func TestCredential_String_Masked(t *testing.T) {
	cred := Credential("caregrid_c29tZXRva2VuYm9keQ")
	got := cred.String()

	if got != "caregrid****" {
		t.Errorf("String() = %q, want masked prefix", got)
	}

	short := Credential("abc")
	if short.String() != "****" {
		t.Errorf("short String() = %q, want \"****\"", short.String())
	}
}
