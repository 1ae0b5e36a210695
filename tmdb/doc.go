// Package tmdb provides a client for the movie metadata service (TMDB API v3).
//
// The client is a thin, stateless read layer: every call is an independent HTTP GET
// authenticated by an API key query parameter, and every response is decoded into
// explicit, validated record types before it leaves the package. There is no local
// cache, so repeated calls for the same ID always re-fetch.
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client, err := tmdb.NewClient(
//		"https://api.themoviedb.org/3",
//		"your-api-key",
//		logger,
//		tmdb.WithTimeout(10*time.Second),
//		tmdb.WithLanguage("en-US"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	movies, err := client.ListByCategory(ctx, tmdb.Popular)
//
// # Error Handling
//
//   - ErrUpstream: non-2xx response, transport failure, malformed JSON or an open
//     circuit breaker
//   - ErrNotFound: the movie ID does not exist (HTTP 404)
//   - APIError: carries the status code and upstream message; it unwraps to one of
//     the sentinels above so callers can use errors.Is
//
// No call is retried. Callers treat a failure as an empty result and tell the user.
package tmdb
