package annotation

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/s0up4200/flickpick/metrics"
	"github.com/s0up4200/flickpick/tmdb"
)

// DefaultConcurrency is the number of catalog fetches in flight while hydrating a list
const DefaultConcurrency = 8

// Record is one mark: the user has put MovieID on the Kind list
type Record struct {
	UserID  string
	MovieID int64
	Kind    Kind
}

// Backend persists marks. Implementations wrap their own errors; the store adds ErrBackend.
type Backend interface {
	Exists(ctx context.Context, rec Record) (bool, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context, rec Record) error
	ListIDs(ctx context.Context, userID string, kind Kind) ([]int64, error)
}

// MovieGetter fetches a single movie from the catalog
type MovieGetter interface {
	GetMovie(ctx context.Context, movieID int64) (*tmdb.Movie, error)
}

// Option configures a Store.
type Option func(*Store)

// WithConcurrency sets how many movies are hydrated at once.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// Store answers and updates per-user marks
type Store struct {
	backend     Backend
	catalog     MovieGetter
	concurrency int
	logger      zerolog.Logger
}

// NewStore creates a new annotation store
func NewStore(backend Backend, catalog MovieGetter, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		catalog:     catalog,
		concurrency: DefaultConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validate(movieID int64, kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if movieID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMovieID, movieID)
	}
	return nil
}

// IsMarked reports whether the user has the movie on the kind list.
// Without a user it is always false.
func (s *Store) IsMarked(ctx context.Context, userID string, movieID int64, kind Kind) (bool, error) {
	if err := validate(movieID, kind); err != nil {
		return false, err
	}
	if userID == "" {
		return false, nil
	}

	ok, err := s.backend.Exists(ctx, Record{UserID: userID, MovieID: movieID, Kind: kind})
	metrics.ObserveAnnotation("is_marked", string(kind), err)
	if err != nil {
		return false, backendError("is marked", err)
	}
	return ok, nil
}

// Toggle flips the mark and returns the new state: true when the movie is now on
// the list, false when it was removed.
func (s *Store) Toggle(ctx context.Context, userID string, movieID int64, kind Kind) (bool, error) {
	if err := validate(movieID, kind); err != nil {
		return false, err
	}
	if userID == "" {
		return false, ErrNoIdentity
	}

	rec := Record{UserID: userID, MovieID: movieID, Kind: kind}

	exists, err := s.backend.Exists(ctx, rec)
	if err != nil {
		metrics.ObserveAnnotation("toggle", string(kind), err)
		return false, backendError("toggle", err)
	}

	if exists {
		err = s.backend.Delete(ctx, rec)
	} else {
		err = s.backend.Put(ctx, rec)
	}
	metrics.ObserveAnnotation("toggle", string(kind), err)
	if err != nil {
		return false, backendError("toggle", err)
	}

	s.logger.Debug().
		Str("user", userID).
		Int64("movie_id", movieID).
		Str("kind", string(kind)).
		Bool("marked", !exists).
		Msg("Toggled annotation")

	return !exists, nil
}

// ListMarkedIDs returns the set of movie IDs on the kind list
func (s *Store) ListMarkedIDs(ctx context.Context, userID string, kind Kind) (map[int64]struct{}, error) {
	ids, err := s.listIDs(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// MarkedIDs returns the movie IDs on the kind list in ascending order
func (s *Store) MarkedIDs(ctx context.Context, userID string, kind Kind) ([]int64, error) {
	ids, err := s.listIDs(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	ids = slices.Clone(ids)
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (s *Store) listIDs(ctx context.Context, userID string, kind Kind) ([]int64, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if userID == "" {
		return []int64{}, nil
	}

	ids, err := s.backend.ListIDs(ctx, userID, kind)
	metrics.ObserveAnnotation("list", string(kind), err)
	if err != nil {
		return nil, backendError("list", err)
	}
	return ids, nil
}
