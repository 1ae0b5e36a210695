package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the API router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, http.StatusNotFound, "Page not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, http.StatusMethodNotAllowed, "")
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(s.recoverer)

	r.Get("/healthz", s.healthcheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/categories/{category}/movies", s.listCategory)
		r.Get("/genres", s.listGenres)
		r.Get("/genres/{id}/movies", s.listGenre)
		r.Get("/search", s.search)
		r.Route("/movies/{id}", func(r chi.Router) {
			r.Get("/", s.getMovie)
			r.Get("/credits", s.getCredits)
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/recommendations", s.recommendations)
			r.Get("/movies/{id}", s.movieCard)

			r.Route("/annotations/{kind}", func(r chi.Router) {
				r.Get("/", s.listMarked)
				r.Get("/ids", s.listMarkedIDs)
				r.Get("/{id}", s.markStatus)
				r.Post("/{id}", s.toggleMark)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", s.getProfile)
				r.Patch("/", s.updateProfile)
				r.Put("/avatar", s.uploadAvatar)
			})
		})
	})

	return r
}
