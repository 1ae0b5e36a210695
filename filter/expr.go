package filter

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/s0up4200/flickpick/tmdb"
)

// DefaultCacheSize is the number of compiled expressions kept by CompileFilter
const DefaultCacheSize = 128

const dateLayout = "2006-01-02"

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size <= 0 {
			return
		}
		if cache, err := lru.New[string, CompiledFilter](size); err == nil {
			c.cache = cache
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helpers, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helpers: helperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements CachingCompiler for expr-based filters
type exprCompiler struct {
	helpers map[string]any
	cache   *lru.Cache[string, CompiledFilter]
}

// Compile compiles an expression into an executable filter. Unknown variables
// and non-boolean results are compile errors.
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(environment(tmdb.Movie{}, c.helpers)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helpers,
	}

	if c.cache != nil {
		c.cache.Add(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Evaluate reports whether the movie matches. Runtime errors count as no match.
func (f *exprFilter) Evaluate(movie tmdb.Movie) bool {
	ok, err := f.Match(movie)
	return err == nil && ok
}

// Match evaluates the filter against a movie
func (f *exprFilter) Match(movie tmdb.Movie) (bool, error) {
	result, err := expr.Run(f.program, environment(movie, f.helpers))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			MovieID:    movie.ID,
			Err:        err,
		}
	}

	// AsBool at compile time guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// helperFunctions creates the helpers that do not depend on the movie. Names
// must not collide with expr operators such as contains or startsWith.
func helperFunctions() map[string]any {
	return map[string]any{
		"containsText": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"hasPrefix": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"parseDate": func(s string) time.Time {
			t, _ := time.Parse(dateLayout, s)
			return t
		},
		"yearsAgo": func(years int) int {
			return time.Now().Year() - years
		},
	}
}

// environment builds the variables and movie-bound helpers for one evaluation
func environment(movie tmdb.Movie, helpers map[string]any) map[string]any {
	env := make(map[string]any, len(helpers)+12)
	maps.Copy(env, helpers)

	year, _ := strconv.Atoi(movie.Year())
	released, _ := time.Parse(dateLayout, movie.ReleaseDate)

	genreIDs := movie.GenreIDs
	if genreIDs == nil {
		genreIDs = []int64{}
	}

	env["ID"] = movie.ID
	env["Title"] = movie.Title
	env["Overview"] = movie.Overview
	env["VoteAverage"] = movie.VoteAverage
	env["ReleaseDate"] = movie.ReleaseDate
	env["Year"] = year
	env["GenreIDs"] = genreIDs
	env["HasPoster"] = movie.PosterPath != ""

	env["hasGenre"] = func(id int) bool {
		return slices.Contains(genreIDs, int64(id))
	}
	env["releasedAfter"] = func(date string) bool {
		t, err := time.Parse(dateLayout, date)
		return err == nil && !released.IsZero() && released.After(t)
	}
	env["releasedBefore"] = func(date string) bool {
		t, err := time.Parse(dateLayout, date)
		return err == nil && !released.IsZero() && released.Before(t)
	}

	return env
}

var defaultCompiler = NewExprCompiler(WithCache(DefaultCacheSize))

// CompileFilter compiles an expression with the shared cached compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}
