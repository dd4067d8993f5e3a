package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSendRequestRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(WithRetry(5, time.Millisecond))
	status, body, err := c.SendRequest(context.Background(), &RequestOptions{
		Method: MethodGet,
		URL:    srv.URL,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if status != http.StatusOK || string(body) != "ok" {
		t.Fatalf("status=%d body=%q", status, body)
	}
	if hits.Load() != 3 {
		t.Fatalf("hits = %d, want 3", hits.Load())
	}
}

func TestSendRequestExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithRetry(2, time.Millisecond))
	if _, _, err := c.SendRequest(context.Background(), &RequestOptions{
		Method: MethodGet,
		URL:    srv.URL,
	}); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
}

func TestSendRequestExcludedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no data"))
	}))
	defer srv.Close()

	c := NewClient()
	status, body, err := c.SendRequest(context.Background(), &RequestOptions{
		Method:        MethodGet,
		URL:           srv.URL,
		ExcludeStatus: []int{http.StatusNotFound},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if status != http.StatusNotFound || string(body) != "no data" {
		t.Fatalf("status=%d body=%q", status, body)
	}
}

func TestSendRequestQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "20240603" {
			t.Errorf("query date = %q", r.URL.Query().Get("date"))
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient()
	var dest struct {
		OK bool `json:"ok"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		Headers:     map[string]string{"User-Agent": "test-agent"},
		QueryParams: map[string][]string{"date": {"20240603"}},
	}, &dest)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !dest.OK {
		t.Fatalf("response not decoded")
	}
}
