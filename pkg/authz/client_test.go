package authz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mindlab-health/caregrid/pkg/session"
)

func TestClient_FetchPermissions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/me/permissions" {
			t.Errorf("path = %q, want /api/v1/users/me/permissions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer caregrid_tok1" {
			t.Errorf("Authorization = %q, want bearer credential", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id":     int64(7),
			"username":    "dr.osei",
			"role":        "physician",
			"permissions": []string{"patients.view_assigned", "earnings.view_own"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	grant, err := client.FetchPermissions(context.Background(), "caregrid_tok1")
	if err != nil {
		t.Fatalf("FetchPermissions() error = %v", err)
	}

	if grant.UserID != 7 {
		t.Errorf("UserID = %d, want 7", grant.UserID)
	}
	if grant.Username != "dr.osei" {
		t.Errorf("Username = %q, want dr.osei", grant.Username)
	}
	if grant.Role != session.RolePhysician {
		t.Errorf("Role = %q, want physician", grant.Role)
	}
	if len(grant.Permissions) != 2 || grant.Permissions[0] != "patients.view_assigned" {
		t.Errorf("Permissions = %v", grant.Permissions)
	}
}

func TestClient_FetchModules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/me/modules" {
			t.Errorf("path = %q, want /api/v1/users/me/modules", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id":            int64(7),
			"role":               "physician",
			"accessible_modules": []string{"patients", "health_records", "earnings"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	grant, err := client.FetchModules(context.Background(), "caregrid_tok1")
	if err != nil {
		t.Fatalf("FetchModules() error = %v", err)
	}

	if grant.Role != session.RolePhysician {
		t.Errorf("Role = %q, want physician", grant.Role)
	}

	want := []string{"patients", "health_records", "earnings"}
	if len(grant.Modules) != len(want) {
		t.Fatalf("Modules = %v, want %v", grant.Modules, want)
	}
	for i := range want {
		if grant.Modules[i] != want[i] {
			t.Errorf("Modules[%d] = %q, want %q (server order must survive)", i, grant.Modules[i], want[i])
		}
	}
}

func TestClient_CheckPermission(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/api/v1/rbac/check-permission" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var req struct {
			Permission string `json:"permission"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Permission != "health_records.delete" {
			t.Errorf("permission = %q, want health_records.delete", req.Permission)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id":        int64(7),
			"permission":     req.Permission,
			"has_permission": false,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	result, err := client.CheckPermission(context.Background(), "caregrid_tok1", "health_records.delete")
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if result.HasPermission {
		t.Error("HasPermission = true, want false")
	}
	if result.Permission != "health_records.delete" {
		t.Errorf("Permission = %q", result.Permission)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, session.ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, session.ErrAuthorizationUnavailable},
		{"not found", http.StatusNotFound, session.ErrAuthorizationUnavailable},
		{"internal error", http.StatusInternalServerError, session.ErrAuthorizationUnavailable},
		{"bad gateway", http.StatusBadGateway, session.ErrAuthorizationUnavailable},
		{"service unavailable", http.StatusServiceUnavailable, session.ErrAuthorizationUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, nil)

			_, err := client.FetchPermissions(context.Background(), "caregrid_tok1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchPermissions() error = %v, want %v", err, tt.wantErr)
			}

			_, err = client.FetchModules(context.Background(), "caregrid_tok1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchModules() error = %v, want %v", err, tt.wantErr)
			}

			_, err = client.CheckPermission(context.Background(), "caregrid_tok1", "patients.view_all")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckPermission() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_TransportErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewClient(server.URL, nil)

	_, err := client.FetchPermissions(context.Background(), "caregrid_tok1")
	if !errors.Is(err, session.ErrAuthorizationUnavailable) {
		t.Errorf("FetchPermissions() error = %v, want ErrAuthorizationUnavailable", err)
	}
}

func TestClient_MalformedBodyIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	_, err := client.FetchPermissions(context.Background(), "caregrid_tok1")
	if !errors.Is(err, session.ErrAuthorizationUnavailable) {
		t.Errorf("FetchPermissions() error = %v, want ErrAuthorizationUnavailable", err)
	}
}

func TestClient_UnknownRoleIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id":     int64(7),
			"username":    "dr.osei",
			"role":        "superuser",
			"permissions": []string{},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	_, err := client.FetchPermissions(context.Background(), "caregrid_tok1")
	if !errors.Is(err, session.ErrAuthorizationUnavailable) {
		t.Errorf("FetchPermissions() error = %v, want ErrAuthorizationUnavailable", err)
	}
}

func TestClient_SessionIntegration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/users/me/permissions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"user_id":     int64(3),
				"username":    "coach.ramos",
				"role":        "health_coach",
				"permissions": []string{"meals.view_assigned", "nutrition.view_assigned"},
			})
		case "/api/v1/users/me/modules":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"user_id":            int64(3),
				"role":               "health_coach",
				"accessible_modules": []string{"patients", "meals", "nutrition"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctrl := session.NewController(NewClient(server.URL, nil))

	if err := ctrl.Begin(context.Background(), "caregrid_tok3"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if ctrl.Phase() != session.PhaseReady {
		t.Fatalf("Phase() = %q, want ready", ctrl.Phase())
	}
	if ctrl.Role() != session.RoleHealthCoach {
		t.Errorf("Role() = %q, want health_coach", ctrl.Role())
	}
	if !ctrl.HasPermission("meals.view_assigned") {
		t.Error("HasPermission(meals.view_assigned) = false, want true")
	}
	if !ctrl.HasModule("nutrition") {
		t.Error("HasModule(nutrition) = false, want true")
	}
}
