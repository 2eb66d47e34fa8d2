// Package courts serves owner catalog endpoints: courts, their events and the
// public day schedule.
package courts

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/booking"
	courtsvc "github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/interval"
)

const defaultEventWindow = 7 * 24 * time.Hour

var (
	service     *courtsvc.Service
	sweepFn     func(context.Context) error
	clock       booking.Clock
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// sweep may be nil.
func InitHandlers(s *courtsvc.Service, sweep func(context.Context) error, c booking.Clock) {
	if s == nil {
		return
	}
	handlerOnce.Do(func() {
		service = s
		sweepFn = sweep
		clock = c
		if clock == nil {
			clock = booking.SystemClock()
		}
	})
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if service == nil {
		log.Ctx(r.Context()).Error().Msg("Court handlers not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "court handlers not initialized"})
		return false
	}
	return true
}

type courtRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	CourtCount  int64  `json:"court_count"`
	SurfaceType string `json:"surface_type"`
	HourlyPrice int64  `json:"hourly_price"`
}

func (req courtRequest) input() (courtsvc.CourtInput, error) {
	name, err := apiutil.RequiredString(req.Name, "name")
	if err != nil {
		return courtsvc.CourtInput{}, err
	}
	if req.CourtCount < 0 {
		return courtsvc.CourtInput{}, apiutil.FieldError{Field: "court_count", Reason: "must be 0 or greater"}
	}
	if req.HourlyPrice < 0 {
		return courtsvc.CourtInput{}, apiutil.FieldError{Field: "hourly_price", Reason: "must be 0 or greater"}
	}
	count := req.CourtCount
	if count == 0 {
		count = 1
	}
	return courtsvc.CourtInput{
		Name:        name,
		Location:    req.Location,
		CourtCount:  count,
		SurfaceType: req.SurfaceType,
		HourlyPrice: req.HourlyPrice,
	}, nil
}

type eventRequest struct {
	Title          string `json:"title"`
	EventType      string `json:"event_type"`
	Start          string `json:"start"`
	End            string `json:"end"`
	BlocksBookings *bool  `json:"blocks_bookings"`
	Color          string `json:"color"`
}

func (req eventRequest) input(loc *time.Location) (courtsvc.EventInput, error) {
	start, err := courtsvc.ParseEventTime(req.Start, loc)
	if err != nil {
		return courtsvc.EventInput{}, apiutil.FieldError{Field: "start", Reason: err.Error()}
	}
	end, err := courtsvc.ParseEventTime(req.End, loc)
	if err != nil {
		return courtsvc.EventInput{}, apiutil.FieldError{Field: "end", Reason: err.Error()}
	}
	blocks := true
	if req.BlocksBookings != nil {
		blocks = *req.BlocksBookings
	}
	return courtsvc.EventInput{
		Title:          req.Title,
		EventType:      strings.TrimSpace(req.EventType),
		Start:          start,
		End:            end,
		BlocksBookings: blocks,
		Color:          req.Color,
	}, nil
}

func writeOK(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
	}
}

// POST /courts
func HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}
	input, err := req.input()
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := service.CreateCourt(r.Context(), caller.ID, input)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, court)
}

// GET /courts lists the caller's courts.
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	list, err := service.ListOwnerCourts(r.Context(), caller.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"courts": list})
}

// GET /courts/{id}
func HandleGetCourt(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if _, ok := apiutil.RequireCaller(w, r); !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := service.GetCourt(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, court)
}

// PUT /courts/{id}
func HandleUpdateCourt(w http.ResponseWriter, r *http.Request) {
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
	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}
	input, err := req.input()
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := service.UpdateCourt(r.Context(), caller.ID, id, input)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, court)
}

// DELETE /courts/{id}
func HandleDeleteCourt(w http.ResponseWriter, r *http.Request) {
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
	if err := service.DeleteCourt(r.Context(), caller.ID, id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /courts/{id}/schedule?date=YYYY-MM-DD
func HandleSchedule(w http.ResponseWriter, r *http.Request) {
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
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = clock.Now().In(service.Location()).Format(interval.DateLayout)
	}

	if sweepFn != nil {
		if err := sweepFn(r.Context()); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Sweep before schedule read failed")
		}
	}

	schedule, err := service.Schedule(r.Context(), id, date, caller.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, schedule)
}

// POST /courts/{id}/events
func HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	var req eventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}
	input, err := req.input(service.Location())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	result, err := service.CreateEvent(r.Context(), caller.ID, courtID, input)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, result)
}

// GET /courts/{id}/events?from=&to=
func HandleListEvents(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if _, ok := apiutil.RequireCaller(w, r); !ok {
		return
	}
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	loc := service.Location()
	from, err := parseBound(r.URL.Query().Get("from"), loc)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "from", Reason: err.Error()})
		return
	}
	if from.IsZero() {
		now := clock.Now().In(loc)
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}
	to, err := parseBound(r.URL.Query().Get("to"), loc)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "to", Reason: err.Error()})
		return
	}
	if to.IsZero() {
		to = from.Add(defaultEventWindow)
	}
	if !to.After(from) {
		apiutil.WriteError(w, r, booking.ErrInvalidInterval)
		return
	}

	events, err := service.ListEvents(r.Context(), courtID, from, to)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]any{"events": events})
}

// PUT /events/{id}
func HandleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	eventID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	var req eventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}
	input, err := req.input(service.Location())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	result, err := service.UpdateEvent(r.Context(), caller.ID, eventID, input)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, result)
}

// DELETE /events/{id}
func HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}
	eventID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := service.DeleteEvent(r.Context(), caller.ID, eventID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseBound accepts a date or an event time. Empty yields the zero time.
func parseBound(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if day, err := interval.ParseDate(raw, loc); err == nil {
		return day, nil
	}
	return courtsvc.ParseEventTime(raw, loc)
}
