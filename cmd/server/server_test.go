package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/codr1/courtbook/internal/config"
)

func TestRoutesThroughMiddleware(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Filename = filepath.Join(t.TempDir(), "server.db")
	cfg.Sweeper.Enabled = false

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)

	handler := newServer(cfg, a).Handler

	send := func(method, path, callerID string, body any) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatalf("encode: %v", err)
			}
		}
		req := httptest.NewRequest(method, path, &buf)
		if callerID != "" {
			req.Header.Set("X-Caller-ID", callerID)
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		return recorder
	}

	if rec := send(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec := send(http.MethodGet, "/courts", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", rec.Code)
	}
	if rec := send(http.MethodGet, "/courts", "nope", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed caller: %d", rec.Code)
	}

	rec := send(http.MethodPost, "/courts", "1", map[string]any{"name": "Court 9", "hourly_price": 400})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create court: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}

	rec = send(http.MethodGet, "/courts/1/schedule?date=2030-01-01", "2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule: %d %s", rec.Code, rec.Body.String())
	}

	if rec := send(http.MethodDelete, "/bookings/1", "1", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unsupported method: %d", rec.Code)
	}
}
