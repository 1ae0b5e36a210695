package tmdb

import (
	"context"
)

// Catalog defines the read operations every screen depends on
type Catalog interface {
	// ListByCategory returns the default first page of a curated listing
	ListByCategory(ctx context.Context, category Category) ([]Movie, error)

	// ListGenres returns the movie genre reference list
	ListGenres(ctx context.Context) ([]Genre, error)

	// SearchByTitle searches movies by free text; blank queries never hit the network
	SearchByTitle(ctx context.Context, query string) ([]Movie, error)

	// ListByGenre returns the default first page of movies tagged with a genre
	ListByGenre(ctx context.Context, genreID int64) ([]Movie, error)

	// GetMovie fetches a single movie with its trailer
	GetMovie(ctx context.Context, movieID int64) (*Movie, error)

	// GetCredits fetches the cast of a movie
	GetCredits(ctx context.Context, movieID int64) ([]CastMember, error)
}

var _ Catalog = (*Client)(nil)
