package annotation

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/flickpick/metrics"
	"github.com/s0up4200/flickpick/tmdb"
)

// ListMarkedMovies returns the full movie records on the kind list, ordered by ID.
// Movies the catalog fails to return are dropped; only a backend failure or a
// cancelled context fails the call.
func (s *Store) ListMarkedMovies(ctx context.Context, userID string, kind Kind) ([]tmdb.Movie, error) {
	ids, err := s.MarkedIDs(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []tmdb.Movie{}, nil
	}

	movies := s.hydrate(ctx, ids, kind)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("kind", string(kind)).
		Int("marked", len(ids)).
		Int("hydrated", len(movies)).
		Msg("Hydrated annotated movies")

	return movies, nil
}

// hydrate fetches movies concurrently, skipping the ones that fail
func (s *Store) hydrate(ctx context.Context, ids []int64, kind Kind) []tmdb.Movie {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var mu sync.Mutex
	movies := make([]tmdb.Movie, 0, len(ids))

	for _, id := range ids {
		g.Go(func() error {
			movie, err := s.catalog.GetMovie(ctx, id)
			if err != nil || movie == nil {
				s.logger.Warn().
					Err(err).
					Int64("movie_id", id).
					Str("kind", string(kind)).
					Msg("Failed to hydrate annotated movie")
				metrics.HydrationDropped.WithLabelValues(string(kind)).Inc()
				// Continue with the others
				return nil
			}

			mu.Lock()
			movies = append(movies, *movie)
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	slices.SortFunc(movies, func(a, b tmdb.Movie) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return movies
}
