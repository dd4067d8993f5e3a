package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServerRecordsRequestMetrics(t *testing.T) {
	s := NewServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/indices", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	scrape := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	scrapeRec := httptest.NewRecorder()
	s.echo.ServeHTTP(scrapeRec, scrape)

	if scrapeRec.Code != http.StatusOK {
		t.Fatalf("metrics status %d, want 200", scrapeRec.Code)
	}
	body := scrapeRec.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Fatalf("expected http_requests_total in scrape output")
	}
	if !strings.Contains(body, `path="/api/indices"`) && !strings.Contains(body, `route="/api/indices"`) {
		t.Fatalf("expected a sample for the requested path")
	}
}
