package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/apis"

	"budgetpricing/metrics"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"GET /api/sessions/{sessionId}", "/api/sessions/{sessionId}"},
		{"/api/orders", "/api/orders"},
		{"", "unmatched"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Pattern = tt.pattern
		if got := routeLabel(req); got != tt.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	if got := errorStatus(nil); got != http.StatusOK {
		t.Errorf("errorStatus(nil) = %d", got)
	}
	if got := errorStatus(apis.NewNotFoundError("", nil)); got != http.StatusNotFound {
		t.Errorf("errorStatus(not found) = %d", got)
	}
	if got := errorStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("errorStatus(plain) = %d", got)
	}
}

func TestStatusWriter_RecordsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}

	sw.WriteHeader(http.StatusAccepted)
	sw.WriteHeader(http.StatusInternalServerError)
	if sw.status != http.StatusAccepted {
		t.Errorf("status = %d, want %d", sw.status, http.StatusAccepted)
	}

	implicit := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	implicit.Write([]byte("ok"))
	if implicit.status != http.StatusOK {
		t.Errorf("implicit status = %d, want 200", implicit.status)
	}
	if implicit.Unwrap() == nil {
		t.Error("Unwrap returned nil")
	}
}

func TestRequestMetrics_RecordsRequest(t *testing.T) {
	m := metrics.New()
	mw := RequestMetrics(m)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Pattern = "GET /api/orders"
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, req, rec)

	if err := mw(e); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if e.Response != rec {
		t.Error("middleware did not restore the original response writer")
	}

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(scrape.Body)
	want := `pricing_api_requests_total{method="GET",route="/api/orders",status="200"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("expected metrics to contain %q", want)
	}
}
