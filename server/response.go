package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/filter"
	"github.com/s0up4200/flickpick/identity"
	"github.com/s0up4200/flickpick/profile"
	"github.com/s0up4200/flickpick/tmdb"
)

type envelope map[string]any

// Response is the body of every API response
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    envelope `json:"data,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, data envelope, msg string, status int) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	render.Status(r, status)
	render.JSON(w, r, Response{
		Success: status >= 200 && status < 400,
		Message: msg,
		Data:    data,
	})
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request, data envelope) {
	s.respond(w, r, data, "", http.StatusOK)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.respond(w, r, nil, msg, status)
}

// requestLogger returns the server logger scoped to the request
func (s *Server) requestLogger(r *http.Request) zerolog.Logger {
	return s.logger.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Logger()
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	var compileErr *filter.CompilationError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, identity.ErrNoIdentity), errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, tmdb.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tmdb.ErrInvalidCategory),
		errors.Is(err, annotation.ErrInvalidKind),
		errors.Is(err, annotation.ErrInvalidMovieID),
		errors.Is(err, profile.ErrUnsupportedImage),
		errors.As(err, &compileErr),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, profile.ErrStorageDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, tmdb.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, annotation.ErrBackend), errors.Is(err, profile.ErrBackend):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes the mapped status. Server-side failures are logged and
// their details withheld from the client.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	log := s.requestLogger(r)

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
		msg := "Sorry! Can't process your request. Please try again later."
		switch status {
		case http.StatusBadGateway:
			msg = "The movie catalog is unavailable"
		case http.StatusServiceUnavailable:
			msg = "Your data is temporarily unavailable"
		case http.StatusNotImplemented:
			msg = err.Error()
		}
		s.fail(w, r, status, msg)
		return
	}

	log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	s.fail(w, r, status, err.Error())
}
