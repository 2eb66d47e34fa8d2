package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codr1/courtbook/internal/api/authz"
)

func TestWithCaller(t *testing.T) {
	var seen *authz.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authz.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := ChainMiddleware(next, WithCaller, WithRequestID)

	t.Run("valid caller", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/courts", nil)
		req.Header.Set(authz.HeaderCallerID, "42")
		req.Header.Set(authz.HeaderCallerName, "Dana")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status: %d", recorder.Code)
		}
		if seen == nil || seen.ID != 42 || seen.DisplayName != "Dana" {
			t.Fatalf("caller = %+v", seen)
		}
		if recorder.Header().Get("X-Request-ID") == "" {
			t.Fatalf("missing request id")
		}
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		seen = nil
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
		if recorder.Code != http.StatusNoContent || seen != nil {
			t.Fatalf("status %d caller %+v", recorder.Code, seen)
		}
	})

	t.Run("malformed caller rejected", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/courts", nil)
		req.Header.Set(authz.HeaderCallerID, "abc")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status: %d", recorder.Code)
		}
		if seen != nil {
			t.Fatalf("handler ran for malformed caller")
		}
	})
}

func TestWithRecoveryWritesJSON(t *testing.T) {
	handler := WithRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: %q", ct)
	}
}

func TestWithRecoveryKeepsStartedResponse(t *testing.T) {
	handler := WithRecovery(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("status: %d", recorder.Code)
	}
	if recorder.Body.Len() != 0 {
		t.Fatalf("unexpected body: %q", recorder.Body.String())
	}
}

func TestWithRequestID(t *testing.T) {
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	upstream := "7f2c4a4e-3b1d-4c55-9a43-0d6b8c9f1e21"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", upstream)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if got := recorder.Header().Get("X-Request-ID"); got != upstream {
		t.Fatalf("request id = %q, want upstream %q", got, upstream)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if got := recorder.Header().Get("X-Request-ID"); got == "" || got == "not-a-uuid" {
		t.Fatalf("request id = %q", got)
	}
}

func TestResponseWriterTracksStatusAndBytes(t *testing.T) {
	wrapped := wrapResponseWriter(httptest.NewRecorder())
	if wrapped.status != http.StatusOK || wrapped.wroteHeader {
		t.Fatalf("fresh writer: status %d started %v", wrapped.status, wrapped.wroteHeader)
	}
	wrapped.WriteHeader(http.StatusTeapot)
	wrapped.WriteHeader(http.StatusOK)
	if wrapped.status != http.StatusTeapot {
		t.Fatalf("status after WriteHeader: %d", wrapped.status)
	}
	if _, err := wrapped.Write([]byte("short and stout")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if wrapped.written != len("short and stout") {
		t.Fatalf("written = %d", wrapped.written)
	}
}
