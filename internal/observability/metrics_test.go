package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/navigation")

	req := httptest.NewRequest(http.MethodGet, "/api/navigation", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `learnova_http_requests_total{code="418",route="/api/navigation"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `learnova_http_request_duration_seconds_bucket{route="/api/navigation"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestMetricsRecordsNavigationAndTenants(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordNavigation("staff")
	metrics.RecordNavigation("staff")
	metrics.RecordNavigation("")
	metrics.RecordTenantResolution("timeout")

	body := scrape(t, metrics)
	for _, want := range []string{
		`learnova_navigation_resolutions_total{audience="staff"} 2`,
		`learnova_navigation_resolutions_total{audience="none"} 1`,
		`learnova_tenant_resolutions_total{outcome="timeout"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.RecordNavigation("parent")
	metrics.RecordTenantResolution("resolved")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
