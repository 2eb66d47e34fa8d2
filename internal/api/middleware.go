package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/courtbook/internal/api/apiutil"
	"github.com/codr1/courtbook/internal/api/authz"
)

const headerRequestID = "X-Request-ID"

type Middleware func(http.Handler) http.Handler

// ChainMiddleware wraps h in order, so the last middleware runs first.
func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

// WithRequestID tags the request logger with an id, reusing a UUID sent by
// an upstream proxy.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		logger := log.With().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := wrapResponseWriter(w)
		next.ServeHTTP(rec, r)

		level := zerolog.InfoLevel
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case rec.status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		log.Ctx(r.Context()).WithLevel(level).
			Int("status", rec.status).
			Int("bytes", rec.written).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

// WithRecovery turns a handler panic into a JSON 500 unless the handler
// already started its response.
func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := wrapResponseWriter(w)
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}
			log.Ctx(r.Context()).Error().
				Interface("panic", recovered).
				Bytes("stack", debug.Stack()).
				Bool("response_started", rec.wroteHeader).
				Msg("Panic recovered")
			if rec.wroteHeader {
				return
			}
			_ = apiutil.WriteJSON(rec, http.StatusInternalServerError, apiutil.ErrorBody{
				Reason:  "Internal",
				Message: "internal server error",
			})
		}()
		next.ServeHTTP(rec, r)
	})
}

// WithCaller stores the gateway-verified caller in the request context.
// Requests without an identity pass through; handlers that need one reject
// them. A malformed identity is rejected here.
func WithCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := authz.CallerFromHeaders(r.Header)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Rejected request with malformed caller identity")
			_ = apiutil.WriteJSON(w, http.StatusUnauthorized, apiutil.ErrorBody{
				Reason:  "Unauthenticated",
				Message: "invalid " + authz.HeaderCallerID,
			})
			return
		}
		if caller != nil {
			logger := log.Ctx(r.Context()).With().Int64("caller_id", caller.ID).Logger()
			ctx := authz.ContextWithCaller(r.Context(), caller)
			r = r.WithContext(logger.WithContext(ctx))
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(p)
	rw.written += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
