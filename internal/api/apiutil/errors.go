package apiutil

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/booking"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

var reasonStatus = map[string]int{
	"InvalidInterval":         http.StatusBadRequest,
	"InvalidStatusTransition": http.StatusBadRequest,
	"InvalidToken":            http.StatusBadRequest,
	"InvalidEventType":        http.StatusBadRequest,
	"InvalidRequest":          http.StatusBadRequest,
	"NotFound":                http.StatusNotFound,
	"NotYourCourt":            http.StatusForbidden,
	"SlotBlockedByEvent":      http.StatusConflict,
	"SlotAlreadyBooked":       http.StatusConflict,
	"AlreadyCheckedIn":        http.StatusConflict,
	"BookingCancelled":        http.StatusConflict,
	"CourtInUse":              http.StatusConflict,
	"EventOverlapsBookings":   http.StatusConflict,
	"BookingExpired":          http.StatusGone,
	"InsufficientPayment":     http.StatusPaymentRequired,
}

// StatusFor returns the HTTP status for a booking reason code.
func StatusFor(reason string) int {
	if status, ok := reasonStatus[reason]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError maps err to a status and reason. Domain conditions and request
// errors carry their message; anything else is logged and reported as a
// bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var (
		status int
		body   ErrorBody
	)
	var fieldErr FieldError
	var handlerErr HandlerError
	switch {
	case errors.As(err, &handlerErr):
		status = handlerErr.Status
		body = ErrorBody{Reason: reasonForStatus(status), Message: handlerErr.Message}
		if reason := booking.Reason(handlerErr.Err); reason != "" {
			body.Reason = reason
		}
	case errors.As(err, &fieldErr):
		status = http.StatusBadRequest
		body = ErrorBody{Reason: "InvalidRequest", Message: fieldErr.Error()}
	default:
		reason := booking.Reason(err)
		if reason == "" {
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
			status = http.StatusInternalServerError
			body = ErrorBody{Reason: "Internal", Message: "internal server error"}
			break
		}
		status = StatusFor(reason)
		body = ErrorBody{Reason: reason, Message: err.Error()}
		logger.Debug().Err(err).Str("reason", reason).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, body); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

func reasonForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "InvalidRequest"
	case http.StatusUnauthorized:
		return "Unauthenticated"
	case http.StatusTooManyRequests:
		return "RateLimited"
	case http.StatusNotFound:
		return "NotFound"
	}
	if status >= http.StatusInternalServerError {
		return "Internal"
	}
	return "Error"
}
