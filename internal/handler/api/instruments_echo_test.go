package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TWPull/internal/domain/models"
	xlogger "TWPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakeHistory struct {
	healthErr error
}

func (f *fakeHistory) Init(context.Context) error { return nil }
func (f *fakeHistory) StoreSnapshot(context.Context, models.Index, []models.Instrument, time.Time) error {
	return nil
}
func (f *fakeHistory) StoreChanges(context.Context, models.Index, []models.Change) error { return nil }
func (f *fakeHistory) QueryChanges(context.Context, models.Index, int) ([]models.Change, error) {
	return nil, nil
}
func (f *fakeHistory) Health(context.Context) error { return f.healthErr }
func (f *fakeHistory) Close() error                 { return nil }

func handlerLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func serveHealthz(t *testing.T, h *InstrumentsEchoHandler) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthzWithoutBackends(t *testing.T) {
	h := NewInstrumentsEchoHandler(handlerLogger(t), nil, nil, nil, nil)
	rec := serveHealthz(t, h)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHealthzHistoryHealthy(t *testing.T) {
	h := NewInstrumentsEchoHandler(handlerLogger(t), nil, nil, &fakeHistory{}, nil)
	rec := serveHealthz(t, h)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"history":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHealthzHistoryDegraded(t *testing.T) {
	h := NewInstrumentsEchoHandler(handlerLogger(t), nil, nil,
		&fakeHistory{healthErr: errors.New("dial tcp: connection refused")}, nil)
	rec := serveHealthz(t, h)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
