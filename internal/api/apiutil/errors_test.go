package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/courtbook/internal/booking"
)

func TestWriteErrorMapsDomainReasons(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantReason string
	}{
		{booking.ErrInvalidInterval, http.StatusBadRequest, "InvalidInterval"},
		{booking.ErrInvalidStatusTransition, http.StatusBadRequest, "InvalidStatusTransition"},
		{booking.ErrInvalidToken, http.StatusBadRequest, "InvalidToken"},
		{booking.ErrNotFound, http.StatusNotFound, "NotFound"},
		{booking.ErrNotYourCourt, http.StatusForbidden, "NotYourCourt"},
		{booking.ErrSlotBlockedByEvent, http.StatusConflict, "SlotBlockedByEvent"},
		{booking.ErrSlotAlreadyBooked, http.StatusConflict, "SlotAlreadyBooked"},
		{booking.ErrAlreadyCheckedIn, http.StatusConflict, "AlreadyCheckedIn"},
		{booking.ErrBookingCancelled, http.StatusConflict, "BookingCancelled"},
		{booking.ErrCourtInUse, http.StatusConflict, "CourtInUse"},
		{booking.ErrEventOverlapsBookings, http.StatusConflict, "EventOverlapsBookings"},
		{booking.ErrBookingExpired, http.StatusGone, "BookingExpired"},
		{booking.ErrInsufficientPayment, http.StatusPaymentRequired, "InsufficientPayment"},
		{fmt.Errorf("wrapped: %w", booking.ErrSlotAlreadyBooked), http.StatusConflict, "SlotAlreadyBooked"},
	}

	for _, tc := range tests {
		t.Run(tc.wantReason, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			WriteError(recorder, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Reason != tc.wantReason {
				t.Fatalf("reason = %q, want %q", body.Reason, tc.wantReason)
			}
		})
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	WriteError(recorder, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("disk on fire at /var/lib/db"))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "disk on fire") {
		t.Fatalf("internal detail leaked: %s", recorder.Body.String())
	}
}

func TestWriteErrorRequestErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	WriteError(recorder, httptest.NewRequest(http.MethodGet, "/", nil), FieldError{Field: "date", Reason: "is required"})
	if recorder.Code != http.StatusBadRequest || !strings.Contains(recorder.Body.String(), "date is required") {
		t.Fatalf("field error: %d %s", recorder.Code, recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	WriteError(recorder, httptest.NewRequest(http.MethodGet, "/", nil), HandlerError{
		Status:  http.StatusTooManyRequests,
		Message: "slow down",
	})
	if recorder.Code != http.StatusTooManyRequests || !strings.Contains(recorder.Body.String(), "RateLimited") {
		t.Fatalf("handler error: %d %s", recorder.Code, recorder.Body.String())
	}
}

func TestDecodeJSONRejectsUnknownFieldsAndTrailingData(t *testing.T) {
	var dst struct {
		CourtID int64 `json:"court_id"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"court_id": 1, "extra": true}`))
	if err := DecodeJSON(r, &dst); err == nil {
		t.Fatalf("expected unknown field error")
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"court_id": 1}{"court_id": 2}`))
	if err := DecodeJSON(r, &dst); err == nil {
		t.Fatalf("expected trailing data error")
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"court_id": 3}`))
	if err := DecodeJSON(r, &dst); err != nil || dst.CourtID != 3 {
		t.Fatalf("decode = %v, %+v", err, dst)
	}
}
