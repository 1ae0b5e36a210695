package filter

import "github.com/s0up4200/flickpick/tmdb"

// Filter decides whether a movie is kept
type Filter interface {
	Evaluate(movie tmdb.Movie) bool
}

// CompiledFilter is a checked expression bound to the movie environment
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the runtime error surfaced
	Match(movie tmdb.Movie) (bool, error)

	// Expression is the trimmed source text
	Expression() string
}

// Compiler turns expressions into filters
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler keeps recently compiled filters by expression
type CachingCompiler interface {
	Compiler

	Clear()
	Size() int
}

// Apply returns the movies the filter keeps, preserving order
func Apply(f Filter, movies []tmdb.Movie) []tmdb.Movie {
	kept := make([]tmdb.Movie, 0, len(movies))
	for _, m := range movies {
		if f.Evaluate(m) {
			kept = append(kept, m)
		}
	}
	return kept
}
