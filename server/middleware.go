package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/s0up4200/flickpick/identity"
	"github.com/s0up4200/flickpick/metrics"
)

// instrument logs every request and records it in metrics by route pattern
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.ObserveHTTPRequest(route, r.Method, status, started)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(started)).
			Msg("Request served")
	})
}

// recoverer turns a panicking handler into a 500 response
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log := s.requestLogger(r)
			log.Error().
				Err(fmt.Errorf("panic: %v", rec)).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")
			s.fail(w, r, http.StatusInternalServerError, "")
		}()

		next.ServeHTTP(w, r)
	})
}

// authenticate puts the bearer token's user into the request context.
// Requests without an Authorization header continue anonymously.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := identity.BearerToken(header)
		if !ok {
			s.fail(w, r, http.StatusBadRequest, "Invalid Authorization header, should be 'Bearer <token>'")
			return
		}

		userID, err := s.deps.Tokens.Verify(token)
		if err != nil {
			log := s.requestLogger(r)
			log.Warn().Err(err).Msg("Rejected bearer token")
			s.fail(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), userID)))
	})
}
