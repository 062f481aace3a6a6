package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mindlab-health/caregrid/pkg/auth"
	"github.com/mindlab-health/caregrid/pkg/contextkeys"
)

func requestAs(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role == "" {
		return req
	}
	authCtx := &auth.AuthContext{
		User:  &auth.User{ID: 1, Username: "test", Role: role, IsActive: true},
		Token: &auth.APIToken{ID: 1, UserID: 1, TokenPrefix: "caregrid_testpref"},
	}
	return req.WithContext(contextkeys.WithAuth(req.Context(), authCtx))
}

func TestRequirePermission(t *testing.T) {
	store := NewSeededTestStore(t)
	resolver := NewResolver(store, NewDecisionCache(16, 0, nil, nil), nil)
	pm := NewPermissionMiddleware(resolver)

	handler := pm.RequirePermission("meals.create_plans")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name string
		role string
		want int
	}{
		{"unauthenticated", "", http.StatusUnauthorized},
		{"unknown role", "superuser", http.StatusForbidden},
		{"denied role", "patient", http.StatusForbidden},
		{"allowed role", "physician", http.StatusOK},
		{"admin materialized", "admin", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestAs(tc.role))
			if rec.Code != tc.want {
				t.Fatalf("role %q: expected %d, got %d: %s", tc.role, tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRequirePermissionUnavailable(t *testing.T) {
	db := NewTestDB(t)
	store := NewStore(db)
	db.Close()

	resolver := NewResolver(store, NewDecisionCache(16, 0, nil, nil), nil)
	pm := NewPermissionMiddleware(resolver)
	handler := pm.RequirePermission("meals.create_plans")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("physician"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("resolution failure must map to 503, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	store := NewSeededTestStore(t)
	resolver := NewResolver(store, NewDecisionCache(16, 0, nil, nil), nil)
	pm := NewPermissionMiddleware(resolver)

	handler := pm.RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs("physician"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 unauthenticated, got %d", rec.Code)
	}
}
