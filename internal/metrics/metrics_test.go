package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/v1/eop", "/api/v1/eop"},
		{"/api/v1/status", "/api/v1/status"},

		// Unknown/bot paths collapse to "other".
		{"/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/api/v1/eop/extra", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that arbitrary scanned paths produce a
// single "other" label, not one label per path.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		label := normalizeRoute("/scan/" + string(rune('a'+i%26)) + string(rune('a'+i/26)))
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for unknown paths, got %d: %v", len(seen), seen)
	}
}

// TestMiddlewarePreservesResponse verifies that the middleware passes the
// handler's status and body through unchanged.
func TestMiddlewarePreservesResponse(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("body"))
	}))

	req := httptest.NewRequest("GET", "/api/v1/eop", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	if w.Body.String() != "body" {
		t.Errorf("body = %q, want %q", w.Body.String(), "body")
	}
}
