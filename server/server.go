// Package server exposes the catalog, the user's annotations, recommendations
// and profiles as a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/profile"
	"github.com/s0up4200/flickpick/recommend"
	"github.com/s0up4200/flickpick/tmdb"
)

// Catalog is the read side of the catalog client
type Catalog interface {
	ListByCategory(ctx context.Context, category tmdb.Category) ([]tmdb.Movie, error)
	ListGenres(ctx context.Context) ([]tmdb.Genre, error)
	SearchByTitle(ctx context.Context, query string) ([]tmdb.Movie, error)
	ListByGenre(ctx context.Context, genreID int64) ([]tmdb.Movie, error)
	GetMovie(ctx context.Context, movieID int64) (*tmdb.Movie, error)
	GetCredits(ctx context.Context, movieID int64) ([]tmdb.CastMember, error)
}

// Annotations is the per-user favorite/watched store
type Annotations interface {
	IsMarked(ctx context.Context, userID string, movieID int64, kind annotation.Kind) (bool, error)
	Toggle(ctx context.Context, userID string, movieID int64, kind annotation.Kind) (bool, error)
	MarkedIDs(ctx context.Context, userID string, kind annotation.Kind) ([]int64, error)
	ListMarkedMovies(ctx context.Context, userID string, kind annotation.Kind) ([]tmdb.Movie, error)
}

// Recommender builds recommendation sessions and movie cards
type Recommender interface {
	Build(ctx context.Context, userID string, req recommend.Request) (*recommend.Session, error)
	Details(ctx context.Context, userID string, movieID int64) (*recommend.Card, error)
}

// Profiles reads and edits user profiles
type Profiles interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Update(ctx context.Context, userID string, changes profile.Changes) (*profile.Profile, error)
	UploadAvatar(ctx context.Context, userID, contentType string, body io.Reader) (string, error)
}

// TokenVerifier turns a bearer token into a user ID
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Deps are the services behind the API
type Deps struct {
	Catalog     Catalog
	Annotations Annotations
	Recommender Recommender
	Profiles    Profiles
	Tokens      TokenVerifier
	// Presets are named filter expressions usable as ?preset= on recommendations
	Presets map[string]string
}

// Server serves the JSON API
type Server struct {
	deps    Deps
	logger  zerolog.Logger
	version string
}

// New creates a new API server
func New(deps Deps, logger zerolog.Logger, version string) (*Server, error) {
	if deps.Catalog == nil || deps.Annotations == nil || deps.Recommender == nil || deps.Profiles == nil {
		return nil, errors.New("server: catalog, annotations, recommender and profiles are required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("server: a token verifier is required")
	}
	return &Server{
		deps:    deps,
		logger:  logger.With().Str("component", "server").Logger(),
		version: version,
	}, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down the API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("graceful shutdown timed out after %s: %w", shutdownTimeout, err)
		}
		return err
	}

	s.logger.Info().Msg("API server stopped")
	return nil
}
