// Package recommend builds a shuffled list of movies for the user to step
// through, skipping what they have already watched.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/filter"
	"github.com/s0up4200/flickpick/tmdb"
)

const (
	// DefaultLimit is the session length when the request does not set one
	DefaultLimit = 20
	// MaxLimit caps the session length
	MaxLimit = 100
)

// Catalog is the part of the catalog client the engine reads
type Catalog interface {
	ListByCategory(ctx context.Context, category tmdb.Category) ([]tmdb.Movie, error)
	ListByGenre(ctx context.Context, genreID int64) ([]tmdb.Movie, error)
	GetMovie(ctx context.Context, movieID int64) (*tmdb.Movie, error)
	GetCredits(ctx context.Context, movieID int64) ([]tmdb.CastMember, error)
}

// Annotations is the part of the annotation store the engine reads
type Annotations interface {
	IsMarked(ctx context.Context, userID string, movieID int64, kind annotation.Kind) (bool, error)
	ListMarkedIDs(ctx context.Context, userID string, kind annotation.Kind) (map[int64]struct{}, error)
}

// Request selects the candidates
type Request struct {
	// GenreID restricts candidates to one genre; zero uses top rated and popular
	GenreID int64
	// Filter is an optional filter expression over each movie
	Filter string
	// Limit is the maximum session length
	Limit int
	// IncludeWatched keeps movies the user already marked as watched
	IncludeWatched bool
}

// Card is everything shown for one recommended movie
type Card struct {
	Movie    tmdb.Movie        `json:"movie"`
	Cast     []tmdb.CastMember `json:"cast"`
	Favorite bool              `json:"favorite"`
	Watched  bool              `json:"watched"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the source used to shuffle candidates.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

// WithCompiler sets the filter compiler.
func WithCompiler(c filter.Compiler) Option {
	return func(e *Engine) {
		if c != nil {
			e.compiler = c
		}
	}
}

// Engine builds recommendation sessions
type Engine struct {
	catalog     Catalog
	annotations Annotations
	compiler    filter.Compiler
	logger      zerolog.Logger

	mu   sync.Mutex // guards rand
	rand *rand.Rand
}

// NewEngine creates a new recommendation engine
func NewEngine(catalog Catalog, annotations Annotations, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog:     catalog,
		annotations: annotations,
		compiler:    filter.NewExprCompiler(filter.WithCache(filter.DefaultCacheSize)),
		logger:      logger,
		rand:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build assembles a shuffled session of candidates for the user
func (e *Engine) Build(ctx context.Context, userID string, req Request) (*Session, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	var compiled filter.CompiledFilter
	if req.Filter != "" {
		f, err := e.compiler.Compile(req.Filter)
		if err != nil {
			return nil, err
		}
		compiled = f
	}

	candidates, err := e.candidates(ctx, req.GenreID)
	if err != nil {
		return nil, err
	}

	if !req.IncludeWatched {
		candidates = e.dropWatched(ctx, userID, candidates)
	}
	if compiled != nil {
		candidates = filter.Apply(compiled, candidates)
	}

	candidates = slices.Clone(candidates)
	e.mu.Lock()
	e.rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	e.mu.Unlock()

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	e.logger.Debug().
		Str("user", userID).
		Int64("genre_id", req.GenreID).
		Int("count", len(candidates)).
		Msg("Built recommendation session")

	return NewSession(candidates), nil
}

// candidates fetches the source lists. With no genre, top rated and popular are
// merged; one failing source is tolerated.
func (e *Engine) candidates(ctx context.Context, genreID int64) ([]tmdb.Movie, error) {
	if genreID > 0 {
		movies, err := e.catalog.ListByGenre(ctx, genreID)
		if err != nil {
			return nil, fmt.Errorf("failed to load genre %d: %w", genreID, err)
		}
		return movies, nil
	}

	sources := []tmdb.Category{tmdb.TopRated, tmdb.Popular}
	lists := make([][]tmdb.Movie, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range sources {
		g.Go(func() error {
			movies, err := e.catalog.ListByCategory(gctx, category)
			if err != nil {
				e.logger.Warn().Err(err).Str("category", string(category)).Msg("Failed to load recommendation source")
				errs[i] = err
				return nil
			}
			lists[i] = movies
			return nil
		})
	}
	_ = g.Wait()

	if errs[0] != nil && errs[1] != nil {
		return nil, errors.Join(errs...)
	}

	seen := make(map[int64]struct{})
	var merged []tmdb.Movie
	for _, list := range lists {
		for _, m := range list {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	return merged, nil
}

// dropWatched removes movies on the user's watched list. A store failure keeps
// every candidate.
func (e *Engine) dropWatched(ctx context.Context, userID string, movies []tmdb.Movie) []tmdb.Movie {
	if userID == "" || e.annotations == nil {
		return movies
	}

	watched, err := e.annotations.ListMarkedIDs(ctx, userID, annotation.Watched)
	if err != nil {
		e.logger.Warn().Err(err).Str("user", userID).Msg("Failed to load watched list, keeping all candidates")
		return movies
	}

	kept := movies[:0:0]
	for _, m := range movies {
		if _, ok := watched[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	return kept
}

// Details loads the movie, its cast and the user's marks concurrently. Only a
// failure to load the movie itself fails the call.
func (e *Engine) Details(ctx context.Context, userID string, movieID int64) (*Card, error) {
	card := &Card{Cast: []tmdb.CastMember{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		movie, err := e.catalog.GetMovie(gctx, movieID)
		if err != nil {
			return err
		}
		card.Movie = *movie
		return nil
	})

	g.Go(func() error {
		cast, err := e.catalog.GetCredits(gctx, movieID)
		if err != nil {
			e.logger.Warn().Err(err).Int64("movie_id", movieID).Msg("Failed to load cast")
			return nil
		}
		card.Cast = cast
		return nil
	})

	if e.annotations != nil {
		g.Go(func() error {
			card.Favorite = e.marked(gctx, userID, movieID, annotation.Favorite)
			return nil
		})
		g.Go(func() error {
			card.Watched = e.marked(gctx, userID, movieID, annotation.Watched)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return card, nil
}

func (e *Engine) marked(ctx context.Context, userID string, movieID int64, kind annotation.Kind) bool {
	ok, err := e.annotations.IsMarked(ctx, userID, movieID, kind)
	if err != nil {
		e.logger.Warn().Err(err).Int64("movie_id", movieID).Str("kind", string(kind)).Msg("Failed to load annotation state")
		return false
	}
	return ok
}
