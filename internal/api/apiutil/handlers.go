package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/authz"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// FieldError is a request validation failure on a single field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Reason
}

// HandlerError carries an explicit status for conditions decided in the
// HTTP layer. Err, when it holds a booking error, supplies the reason.
type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string { return e.Message }

func (e HandlerError) Unwrap() error { return e.Err }

// DecodeJSON reads exactly one JSON object into dst, rejecting unknown
// fields, trailing values and bodies over MaxBodyBytes.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		}
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// WriteJSON encodes payload before touching w so an encoding failure can
// still produce a clean error response.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// RequireCaller returns the request's caller or writes a 401.
func RequireCaller(w http.ResponseWriter, r *http.Request) (*authz.Caller, bool) {
	caller, err := authz.RequireCaller(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Warn().Msg("Request without caller identity")
		_ = WriteJSON(w, http.StatusUnauthorized, ErrorBody{
			Reason:  "Unauthenticated",
			Message: authz.HeaderCallerID + " header is required",
		})
		return nil, false
	}
	return caller, true
}
