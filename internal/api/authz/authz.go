package authz

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/codr1/courtbook/internal/booking"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidCaller   = errors.New("invalid caller identity")
)

// Identity headers set by the upstream gateway after it verified the caller.
const (
	HeaderCallerID    = "X-Caller-ID"
	HeaderCallerName  = "X-Caller-Name"
	HeaderCallerEmail = "X-Caller-Email"
	HeaderCallerPhone = "X-Caller-Phone"
)

// Caller is the verified identity making a request. The same id space covers
// court owners and players.
type Caller struct {
	ID          int64
	DisplayName string
	Email       string
	Phone       string
}

// Profile returns the caller as a player profile.
func (c *Caller) Profile() *booking.PlayerProfile {
	if c == nil {
		return nil
	}
	return &booking.PlayerProfile{
		ID:          c.ID,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		Phone:       c.Phone,
	}
}

type callerContextKey struct{}

func ContextWithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext retrieves the Caller stored in ctx.
// It returns nil if ctx is nil, if no caller is stored, or if the stored value has a different type.
func CallerFromContext(ctx context.Context) *Caller {
	if ctx == nil {
		return nil
	}
	caller, ok := ctx.Value(callerContextKey{}).(*Caller)
	if !ok {
		return nil
	}
	return caller
}

func RequireCaller(ctx context.Context) (*Caller, error) {
	caller := CallerFromContext(ctx)
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	return caller, nil
}

// CallerFromHeaders reads the gateway identity headers. It returns nil and no
// error when the id header is absent.
func CallerFromHeaders(h http.Header) (*Caller, error) {
	raw := strings.TrimSpace(h.Get(HeaderCallerID))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidCaller
	}
	return &Caller{
		ID:          id,
		DisplayName: strings.TrimSpace(h.Get(HeaderCallerName)),
		Email:       strings.TrimSpace(h.Get(HeaderCallerEmail)),
		Phone:       strings.TrimSpace(h.Get(HeaderCallerPhone)),
	}, nil
}
