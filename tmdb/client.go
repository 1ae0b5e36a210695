package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/s0up4200/flickpick/metrics"
)

// DefaultBaseURL is the public TMDB API v3 root
const DefaultBaseURL = "https://api.themoviedb.org/3"

// maxErrorBodySize limits how much of an error response is kept
const maxErrorBodySize = 64 * 1024

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Client represents a TMDB API client
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("tmdb URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("tmdb API key is required")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		language:   options.language,
		httpClient: httpClient,
		breaker:    newBreaker(options.breaker, logger),
		logger:     logger,
	}, nil
}

// doRequest performs a GET through the circuit breaker and returns the raw body.
// endpoint is a low-cardinality label used for logs and metrics.
func (c *Client) doRequest(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	started := time.Now()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path, params)
	})

	switch {
	case err == nil:
		metrics.ObserveCatalogRequest(endpoint, "ok", started)
	case isRejected(err):
		metrics.ObserveCatalogRequest(endpoint, "rejected", started)
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	case isNotFound(err):
		metrics.ObserveCatalogRequest(endpoint, "not_found", started)
		return nil, err
	default:
		metrics.ObserveCatalogRequest(endpoint, "error", started)
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("path", path).
		Dur("took", time.Since(started)).
		Msg("TMDB request completed")

	return body, nil
}

// fetch performs the HTTP round trip
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", c.apiKey)
	if c.language != "" {
		query.Set("language", c.language)
	}

	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: request failed: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrUpstream, err)
	}

	return body, nil
}

// newAPIError reads a bounded amount of the error body and extracts the upstream message
func newAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Body:       string(raw),
	}

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		apiErr.Message = eb.StatusMessage
	}

	return apiErr
}

// decode parses a catalog response body
func decode[T any](body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", ErrUpstream, err)
	}
	return &out, nil
}

// Ping verifies the API key against the configuration endpoint
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "configuration", "/configuration", nil)
	return err
}

// ListByCategory retrieves the first page of a curated listing
func (c *Client) ListByCategory(ctx context.Context, category Category) ([]Movie, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	return c.listMovies(ctx, string(category), "/movie/"+string(category), nil)
}

// ListGenres retrieves the movie genre list
func (c *Client) ListGenres(ctx context.Context) ([]Genre, error) {
	body, err := c.doRequest(ctx, "genres", "/genre/movie/list", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}

	list, err := decode[genreList](body)
	if err != nil {
		return nil, err
	}

	genres := make([]Genre, 0, len(list.Genres))
	for _, g := range list.Genres {
		if err := recordValidator().Struct(g); err != nil {
			c.logger.Warn().Err(err).Int64("genre_id", g.ID).Msg("Skipping invalid genre record")
			continue
		}
		genres = append(genres, Genre{ID: g.ID, Name: g.Name})
	}

	c.logger.Debug().Msgf("Retrieved %d genres from TMDB", len(genres))
	return genres, nil
}

// SearchByTitle searches movies by title. Blank queries return an empty result
// without a request.
func (c *Client) SearchByTitle(ctx context.Context, query string) ([]Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Movie{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	return c.listMovies(ctx, "search", "/search/movie", params)
}

// ListByGenre retrieves the first page of movies tagged with a genre
func (c *Client) ListByGenre(ctx context.Context, genreID int64) ([]Movie, error) {
	params := url.Values{}
	params.Set("with_genres", strconv.FormatInt(genreID, 10))
	return c.listMovies(ctx, "discover", "/discover/movie", params)
}

// GetMovie retrieves a movie with its trailer
func (c *Client) GetMovie(ctx context.Context, movieID int64) (*Movie, error) {
	params := url.Values{}
	params.Set("append_to_response", "videos")

	body, err := c.doRequest(ctx, "movie", "/movie/"+strconv.FormatInt(movieID, 10), params)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}

	result, err := decode[movieResult](body)
	if err != nil {
		return nil, err
	}
	if err := recordValidator().Struct(result); err != nil {
		return nil, fmt.Errorf("%w: invalid movie record %d: %w", ErrUpstream, movieID, err)
	}

	movie := result.toMovie()
	return &movie, nil
}

// GetCredits retrieves the cast of a movie
func (c *Client) GetCredits(ctx context.Context, movieID int64) ([]CastMember, error) {
	body, err := c.doRequest(ctx, "credits", "/movie/"+strconv.FormatInt(movieID, 10)+"/credits", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get credits for movie %d: %w", movieID, err)
	}

	result, err := decode[credits](body)
	if err != nil {
		return nil, err
	}

	cast := make([]CastMember, 0, len(result.Cast))
	for _, member := range result.Cast {
		if err := recordValidator().Struct(member); err != nil {
			c.logger.Warn().Err(err).Int64("movie_id", movieID).Msg("Skipping invalid cast record")
			continue
		}
		cast = append(cast, CastMember{
			ID:          member.ID,
			Name:        member.Name,
			Character:   member.Character,
			ProfilePath: relativePath(member.ProfilePath),
		})
	}

	return cast, nil
}

// listMovies fetches a paged movie listing and keeps the valid records of the first page
func (c *Client) listMovies(ctx context.Context, endpoint, path string, params url.Values) ([]Movie, error) {
	body, err := c.doRequest(ctx, endpoint, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s movies: %w", endpoint, err)
	}

	page, err := decode[pagedMovies](body)
	if err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, len(page.Results))
	for _, r := range page.Results {
		if err := recordValidator().Struct(r); err != nil {
			c.logger.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int64("movie_id", r.ID).
				Msg("Skipping invalid movie record")
			continue
		}
		movies = append(movies, r.toMovie())
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("count", len(movies)).
		Int("total_results", page.TotalResults).
		Msg("Retrieved movies from TMDB")

	return movies, nil
}

// isNotFound checks for a 404 anywhere in the chain
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
