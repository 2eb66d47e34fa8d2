// cmd/server/server.go
package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/codr1/courtbook/internal/api"
	"github.com/codr1/courtbook/internal/api/bookings"
	"github.com/codr1/courtbook/internal/api/checkins"
	"github.com/codr1/courtbook/internal/api/courts"
	"github.com/codr1/courtbook/internal/config"
)

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithCaller,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	bookings.InitHandlers(a.engine, a.processor, a.courts, a.sweeper)
	checkins.InitHandlers(a.processor, a.limiter, cfg.App.TrustProxy)
	courts.InitHandlers(a.courts, func(ctx context.Context) error {
		_, err := a.sweeper.Sweep(ctx)
		return err
	}, nil)

	// Register routes
	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Booking routes
	mux.HandleFunc("POST /bookings", bookings.HandleCreateBooking)
	mux.HandleFunc("POST /bookings/sweep", bookings.HandleSweep)
	mux.HandleFunc("GET /bookings/{id}", bookings.HandleGetBooking)
	mux.HandleFunc("PATCH /bookings/{id}/status", bookings.HandleUpdateBookingStatus)
	mux.HandleFunc("GET /bookings/{id}/checkin-token", bookings.HandleCheckinToken)

	// Front desk routes
	mux.HandleFunc("POST /checkins/verify", checkins.HandleVerify)
	mux.HandleFunc("POST /checkins/settle", checkins.HandleSettle)

	// Court routes
	mux.HandleFunc("POST /courts", courts.HandleCreateCourt)
	mux.HandleFunc("GET /courts", courts.HandleListCourts)
	mux.HandleFunc("GET /courts/{id}", courts.HandleGetCourt)
	mux.HandleFunc("PUT /courts/{id}", courts.HandleUpdateCourt)
	mux.HandleFunc("DELETE /courts/{id}", courts.HandleDeleteCourt)
	mux.HandleFunc("GET /courts/{id}/schedule", courts.HandleSchedule)

	// Event routes
	mux.HandleFunc("POST /courts/{id}/events", courts.HandleCreateEvent)
	mux.HandleFunc("GET /courts/{id}/events", courts.HandleListEvents)
	mux.HandleFunc("PUT /events/{id}", courts.HandleUpdateEvent)
	mux.HandleFunc("DELETE /events/{id}", courts.HandleDeleteEvent)
}
