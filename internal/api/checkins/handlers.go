// Package checkins serves the front-desk verify and settle endpoints.
package checkins

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/checkin"
	"github.com/codr1/courtbook/internal/ratelimit"
)

var (
	processor   *checkin.Processor
	limiter     *ratelimit.Limiter
	trustProxy  bool
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// A nil limiter disables verify rate limiting.
func InitHandlers(p *checkin.Processor, l *ratelimit.Limiter, behindProxy bool) {
	if p == nil {
		return
	}
	handlerOnce.Do(func() {
		processor = p
		limiter = l
		trustProxy = behindProxy
	})
}

type verifyRequest struct {
	BookingID int64  `json:"booking_id"`
	Token     string `json:"token"`
}

type settleRequest struct {
	BookingID    int64  `json:"booking_id"`
	CashTendered *int64 `json:"cash_tendered"`
}

// POST /checkins/verify
func HandleVerify(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if processor == nil {
		logger.Error().Msg("Check-in handlers not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "check-in handlers not initialized"})
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}

	if limiter != nil {
		ip := ratelimit.GetClientIP(r, trustProxy)
		if result := limiter.Allow(caller.ID, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(caller.ID, ip, result.Reason)
			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			apiutil.WriteError(w, r, apiutil.HandlerError{
				Status:  http.StatusTooManyRequests,
				Message: "too many verification attempts",
			})
			return
		}
	}

	var req verifyRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}

	var (
		verification checkin.Verification
		err          error
	)
	switch {
	case strings.TrimSpace(req.Token) != "":
		verification, err = processor.VerifyToken(r.Context(), req.Token, caller.ID)
	case req.BookingID > 0:
		verification, err = processor.Verify(r.Context(), req.BookingID, caller.ID)
	default:
		err = apiutil.FieldError{Field: "booking_id", Reason: "or token is required"}
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, verification); err != nil {
		logger.Error().Err(err).Msg("Failed to write verification")
	}
}

// POST /checkins/settle
func HandleSettle(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if processor == nil {
		logger.Error().Msg("Check-in handlers not initialized")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "check-in handlers not initialized"})
		return
	}
	caller, ok := apiutil.RequireCaller(w, r)
	if !ok {
		return
	}

	var req settleRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err})
		return
	}
	if req.BookingID <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "booking_id", Reason: "must be a positive integer"})
		return
	}
	if req.CashTendered != nil && *req.CashTendered < 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "cash_tendered", Reason: "must be 0 or greater"})
		return
	}

	settlement, err := processor.Settle(r.Context(), checkin.SettleRequest{
		BookingID:    req.BookingID,
		CashTendered: req.CashTendered,
		CallerID:     caller.ID,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, settlement); err != nil {
		logger.Error().Err(err).Msg("Failed to write settlement")
	}
}
