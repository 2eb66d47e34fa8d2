package authz

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestRequireCallerUnauthenticated(t *testing.T) {
	_, err := RequireCaller(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireCallerFromContext(t *testing.T) {
	ctx := ContextWithCaller(context.Background(), &Caller{ID: 10})

	caller, err := RequireCaller(ctx)
	if err != nil {
		t.Fatalf("expected caller, got %v", err)
	}
	if caller.ID != 10 {
		t.Fatalf("caller id = %d", caller.ID)
	}
}

func TestCallerFromContextNil(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if CallerFromContext(nil) != nil {
		t.Fatalf("expected nil caller for nil context")
	}
	ctx := context.WithValue(context.Background(), callerContextKey{}, "not a caller")
	if CallerFromContext(ctx) != nil {
		t.Fatalf("expected nil caller for wrong type")
	}
}

func TestCallerFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		wantID  int64
		wantErr error
	}{
		{name: "absent", headers: map[string]string{}},
		{name: "valid", headers: map[string]string{HeaderCallerID: " 42 ", HeaderCallerName: "Dana", HeaderCallerEmail: "dana@test.com"}, wantID: 42},
		{name: "zero", headers: map[string]string{HeaderCallerID: "0"}, wantErr: ErrInvalidCaller},
		{name: "negative", headers: map[string]string{HeaderCallerID: "-3"}, wantErr: ErrInvalidCaller},
		{name: "garbage", headers: map[string]string{HeaderCallerID: "abc"}, wantErr: ErrInvalidCaller},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tc.headers {
				h.Set(k, v)
			}
			caller, err := CallerFromHeaders(h)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantID == 0 {
				if caller != nil && err == nil {
					t.Fatalf("expected no caller, got %+v", caller)
				}
				return
			}
			if caller == nil || caller.ID != tc.wantID {
				t.Fatalf("caller = %+v", caller)
			}
			profile := caller.Profile()
			if profile.ID != tc.wantID || profile.DisplayName != "Dana" || profile.Email != "dana@test.com" {
				t.Fatalf("profile = %+v", profile)
			}
		})
	}
}
