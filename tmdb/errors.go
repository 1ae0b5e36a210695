package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrUpstream indicates the catalog service failed or returned something unusable
	ErrUpstream = errors.New("catalog service error")
	// ErrNotFound indicates the requested movie does not exist
	ErrNotFound = errors.New("movie not found")
	// ErrInvalidCategory indicates an unknown listing category
	ErrInvalidCategory = errors.New("invalid movie category")
)

// APIError represents a non-2xx response from the catalog service
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tmdb API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tmdb API error: status %d", e.StatusCode)
}

// Unwrap maps the status code onto the package sentinels
func (e *APIError) Unwrap() error {
	if e.IsNotFound() {
		return ErrNotFound
	}
	return ErrUpstream
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates a rejected API key
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
