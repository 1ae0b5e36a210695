package tmdb

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout    time.Duration
	httpClient *http.Client
	language   string
	breaker    BreakerSettings
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout: 30 * time.Second,
		breaker: BreakerSettings{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its own timeout wins over WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithLanguage sets the language query parameter sent on every call (e.g. "en-US").
func WithLanguage(language string) Option {
	return func(o *clientOptions) {
		o.language = language
	}
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(settings BreakerSettings) Option {
	return func(o *clientOptions) {
		o.breaker = settings
	}
}
