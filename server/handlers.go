package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	json "github.com/goccy/go-json"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/identity"
	"github.com/s0up4200/flickpick/profile"
	"github.com/s0up4200/flickpick/recommend"
	"github.com/s0up4200/flickpick/tmdb"
)

const maxJSONBody = 1 << 20

func (s *Server) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}{
		Status:  "available",
		Version: s.version,
	})
}

// positiveIDParam reads a positive integer URL parameter, writing a 400 when it is not one
func (s *Server) positiveIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		s.fail(w, r, http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

func (s *Server) kindParam(w http.ResponseWriter, r *http.Request) (annotation.Kind, bool) {
	kind, err := annotation.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.handleError(w, r, err)
		return "", false
	}
	return kind, true
}

func (s *Server) listCategory(w http.ResponseWriter, r *http.Request) {
	category, err := tmdb.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	movies, err := s.deps.Catalog.ListByCategory(r.Context(), category)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"category": category, "movies": movies})
}

func (s *Server) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.deps.Catalog.ListGenres(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"genres": genres})
}

func (s *Server) listGenre(w http.ResponseWriter, r *http.Request) {
	genreID, ok := s.positiveIDParam(w, r, "id")
	if !ok {
		return
	}

	movies, err := s.deps.Catalog.ListByGenre(r.Context(), genreID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"genre_id": genreID, "movies": movies})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	movies, err := s.deps.Catalog.SearchByTitle(r.Context(), query)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"query": query, "movies": movies})
}

func (s *Server) getMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.positiveIDParam(w, r, "id")
	if !ok {
		return
	}

	movie, err := s.deps.Catalog.GetMovie(r.Context(), movieID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"movie": movie})
}

func (s *Server) getCredits(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.positiveIDParam(w, r, "id")
	if !ok {
		return
	}

	cast, err := s.deps.Catalog.GetCredits(r.Context(), movieID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"movie_id": movieID, "cast": cast})
}

// recommendationRequest reads genre, filter, preset, limit and include_watched
func (s *Server) recommendationRequest(r *http.Request) (recommend.Request, error) {
	q := r.URL.Query()
	req := recommend.Request{Filter: q.Get("filter")}

	if v := q.Get("genre"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			return req, fmt.Errorf("genre must be a positive integer")
		}
		req.GenreID = id
	}

	if name := q.Get("preset"); name != "" {
		if req.Filter != "" {
			return req, errors.New("use either filter or preset, not both")
		}
		expression, ok := s.deps.Presets[strings.ToLower(name)]
		if !ok {
			return req, fmt.Errorf("unknown filter preset %q", name)
		}
		req.Filter = expression
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > recommend.MaxLimit {
			return req, fmt.Errorf("limit must be between 1 and %d", recommend.MaxLimit)
		}
		req.Limit = limit
	}

	if v := q.Get("include_watched"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("include_watched must be a boolean")
		}
		req.IncludeWatched = include
	}

	return req, nil
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	req, err := s.recommendationRequest(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.deps.Recommender.Build(r.Context(), identity.UserFromContext(r.Context()), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"count": session.Len(), "movies": session.Movies()})
}

func (s *Server) movieCard(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.positiveIDParam(w, r, "id")
	if !ok {
		return
	}

	card, err := s.deps.Recommender.Details(r.Context(), identity.UserFromContext(r.Context()), movieID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"card": card})
}

func (s *Server) listMarked(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}

	movies, err := s.deps.Annotations.ListMarkedMovies(r.Context(), identity.UserFromContext(r.Context()), kind)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"kind": kind, "movies": movies})
}

func (s *Server) listMarkedIDs(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}

	ids, err := s.deps.Annotations.MarkedIDs(r.Context(), identity.UserFromContext(r.Context()), kind)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"kind": kind, "ids": ids})
}

func (s *Server) markStatus(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}
	movieID, ok := s.positiveIDParam(w, r, "id")
	if !ok {
		return
	}

	marked, err := s.deps.Annotations.IsMarked(r.Context(), identity.UserFromContext(r.Context()), movieID, kind)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"kind": kind, "movie_id": movieID, "marked": marked})
}

func (s *Server) toggleMark(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}
	movieID, ok := s.positiveIDParam(w, r, "id")
	if !ok {
		return
	}

	marked, err := s.deps.Annotations.Toggle(r.Context(), identity.UserFromContext(r.Context()), movieID, kind)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	msg := "No longer marked as " + strings.ToLower(kind.Label())
	if marked {
		msg = "Marked as " + strings.ToLower(kind.Label())
	}
	s.respond(w, r, envelope{"kind": kind, "movie_id": movieID, "marked": marked}, msg, http.StatusOK)
}

// getProfile answers anonymous callers with an empty profile, like the other reads under /me
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserFromContext(r.Context())
	if userID == "" {
		s.ok(w, r, envelope{"profile": nil})
		return
	}

	p, err := s.deps.Profiles.Get(r.Context(), userID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, r, envelope{"profile": p})
}

type profileChanges struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body profileChanges
	if err := readJSON(w, r, &body); err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.deps.Profiles.Update(r.Context(), identity.UserFromContext(r.Context()), profile.Changes{
		Name:  body.Name,
		Email: body.Email,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respond(w, r, envelope{"profile": p}, "Profile updated", http.StatusOK)
}

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, profile.MaxAvatarSize+1)
	defer body.Close()

	url, err := s.deps.Profiles.UploadAvatar(r.Context(), identity.UserFromContext(r.Context()), r.Header.Get("Content-Type"), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = profile.ErrImageTooLarge
		}
		s.handleError(w, r, err)
		return
	}
	s.respond(w, r, envelope{"image_url": url}, "Avatar uploaded", http.StatusOK)
}

// readJSON decodes a single JSON object, rejecting unknown fields
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	src := http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer io.Copy(io.Discard, src)

	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		default:
			return fmt.Errorf("body contains badly-formed JSON: %w", err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}
