package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	if m == nil {
		t.Fatal("Expected non-nil metrics")
	}

	// Touch a few representative metrics so they show up in the gather.
	m.AuthzDecisionsTotal.WithLabelValues("physician", "permission", "allow").Inc()
	m.CacheHitsTotal.WithLabelValues("l1").Inc()
	m.RolesSeeded.Set(6)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"caregrid_authz_decisions_total",
		"caregrid_cache_hits_total",
		"caregrid_roles_seeded",
	} {
		if !names[want] {
			t.Errorf("Expected metric family %s to be registered", want)
		}
	}
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	NewMetrics(registry)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"access denied"}`))
	}))

	req := httptest.NewRequest("GET", "/api/v1/users/me/modules", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", w.Code)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "caregrid_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			status := ""
			for _, label := range metric.GetLabel() {
				if label.GetName() == "status" {
					status = label.GetValue()
				}
			}
			if status == "403" && metric.GetCounter().GetValue() == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Error("Expected caregrid_http_requests_total{status=\"403\"} == 1")
	}
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 from /metrics, got %d", w.Code)
	}
}
