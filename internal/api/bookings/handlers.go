// Package bookings serves the reservation endpoints.
package bookings

import (
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/booking"
	"github.com/codr1/courtbook/internal/checkin"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/interval"
	"github.com/codr1/courtbook/internal/scheduler"
)

var (
	engine      *booking.Engine
	processor   *checkin.Processor
	courtsSvc   *courts.Service
	sweeper     *scheduler.Sweeper
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *booking.Engine, p *checkin.Processor, c *courts.Service, s *scheduler.Sweeper) {
	if e == nil || p == nil || c == nil || s == nil {
		return
	}
	handlerOnce.Do(func() {
		engine = e
		processor = p
		courtsSvc = c
		sweeper = s
	})
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if engine == nil {
		log.Ctx(r.Context()).Error().Msg("Booking handlers not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "booking handlers not initialized"})
		return false
	}
	return true
}

type createBookingRequest struct {
	CourtID       int64  `json:"court_id"`
	PlayerID      *int64 `json:"player_id"`
	CustomerName  string `json:"customer_name"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Price         *int64 `json:"price"`
	PaymentMethod string `json:"payment_method"`
	Paid          bool   `json:"paid"`
	Status        string `json:"status"`
}

type createBookingResponse struct {
	Booking      booking.Booking `json:"booking"`
	CheckinToken string          `json:"checkin_token,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// POST /bookings
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	logger := log.Ctx(r.Context())
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "court_id", Reason: "must be a positive integer"})
		return
	}
	status := booking.Status(strings.TrimSpace(req.Status))
	if status != "" && status != booking.StatusPending && status != booking.StatusConfirmed {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "status", Reason: "must be pending or confirmed"})
		return
	}
	if req.Price != nil && *req.Price < 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "price", Reason: "must not be negative"})
		return
	}
	method, err := booking.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "payment_method", Reason: err.Error()})
		return
	}

	court, err := courtsSvc.GetCourt(r.Context(), req.CourtID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	params := booking.CreateParams{
		ActorID:       caller.ID,
		CourtID:       req.CourtID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Slot:          interval.Slot{Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime},
		Price:         req.Price,
		PaymentMethod: method,
		Paid:          req.Paid,
		Status:        status,
	}
	if court.OwnerID == caller.ID {
		params.Source = booking.SourceOwner
		params.PlayerID = req.PlayerID
	} else {
		if req.PlayerID != nil && *req.PlayerID != caller.ID {
			apiutil.WriteError(w, r, apiutil.HandlerError{
				Status:  http.StatusForbidden,
				Message: "players may only book for themselves",
				Err:     booking.ErrNotYourCourt,
			})
			return
		}
		params.Source = booking.SourcePlayer
		id := caller.ID
		params.PlayerID = &id
		if caller.DisplayName != "" || caller.Email != "" {
			params.Player = caller.Profile()
		}
	}

	created, err := engine.CreateBooking(r.Context(), params)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	resp := createBookingResponse{Booking: created}
	token, err := processor.EncodeToken(created, court.Name)
	if err != nil {
		logger.Error().Err(err).Int64("booking_id", created.ID).Msg("Failed to encode check-in token")
	} else {
		resp.CheckinToken = token
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write booking response")
	}
}

// GET /bookings/{id}
func HandleGetBooking(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	details, err := engine.GetBooking(r.Context(), id, caller.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, details); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write booking")
	}
}

// PATCH /bookings/{id}/status
func HandleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req statusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}
	status, err := apiutil.RequiredString(req.Status, "status")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	updated, err := engine.UpdateBookingStatus(r.Context(), booking.StatusChange{
		BookingID: id,
		Status:    booking.Status(status),
		Reason:    req.Reason,
		ActorID:   caller.ID,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write booking")
	}
}

// GET /bookings/{id}/checkin-token
func HandleCheckinToken(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	token, err := processor.IssueToken(r.Context(), id, caller.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, tokenResponse{Token: token}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write check-in token")
	}
}

// POST /bookings/sweep
func HandleSweep(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if _, ok := apiutil.RequireCaller(w, r); !ok {
		return
	}

	result, err := sweeper.Sweep(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, result); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write sweep result")
	}
}
