package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/flickpick/tmdb"
)

func testMovie() tmdb.Movie {
	return tmdb.Movie{
		ID:          550,
		Title:       "Fight Club",
		Overview:    "An insomniac office worker and a devil-may-care soap maker form an underground fight club.",
		PosterPath:  "/p.jpg",
		VoteAverage: 8.4,
		ReleaseDate: "1999-10-15",
		GenreIDs:    []int64{18, 53},
	}
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `hasGenre(18)`,
		},
		{
			name:        "empty expression",
			expression:  "  ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `containsText(Title, "unclosed`,
			wantErr:    true,
		},
		{
			name:       "unknown variable",
			expression: `Runtime > 120`,
			wantErr:    true,
		},
		{
			name:       "non-boolean result",
			expression: `VoteAverage + 1`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `hasGenre(18) and Year >= 1990 and VoteAverage > 7.0 and not containsText(Title, "club 2")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewExprCompiler().Compile(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.True(t, errors.As(err, &compErr))
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, filter)
		})
	}
}

func TestHelpersCompile(t *testing.T) {
	calls := map[string]string{
		"hasGenre":       `hasGenre(18)`,
		"containsText":   `containsText(Title, "club")`,
		"hasPrefix":      `hasPrefix(Title, "fight")`,
		"releasedAfter":  `releasedAfter("1990-01-01")`,
		"releasedBefore": `releasedBefore("2000-01-01")`,
		"lower":          `lower(Title) == "fight club"`,
		"upper":          `upper(Title) == "FIGHT CLUB"`,
		"parseDate":      `parseDate(ReleaseDate).Year() == 1999`,
		"yearsAgo":       `Year >= yearsAgo(100)`,
	}

	helpers := helperFunctions()
	compiler := NewExprCompiler()
	for name, expression := range calls {
		t.Run(name, func(t *testing.T) {
			_, err := compiler.Compile(expression)
			require.NoError(t, err)
		})
	}

	for name := range helpers {
		assert.Contains(t, calls, name, "helper %s has no compile check", name)
	}
	for _, name := range []string{"hasGenre", "releasedAfter", "releasedBefore"} {
		assert.Contains(t, environment(tmdb.Movie{}, helpers), name)
	}
}

func TestFilterEvaluation(t *testing.T) {
	movie := testMovie()

	tests := []struct {
		expression string
		want       bool
	}{
		{`hasGenre(18)`, true},
		{`hasGenre(28)`, false},
		{`Year == 1999`, true},
		{`Year > 2000`, false},
		{`VoteAverage >= 8`, true},
		{`containsText(Title, "FIGHT")`, true},
		{`Title contains "Fight"`, true},
		{`Title contains "fight"`, false},
		{`containsText(Overview, "insomniac")`, true},
		{`hasPrefix(Title, "fight")`, true},
		{`lower(Title) == "fight club"`, true},
		{`upper(Title) == "FIGHT CLUB"`, true},
		{`releasedAfter("1990-01-01")`, true},
		{`releasedBefore("1990-01-01")`, false},
		{`releasedAfter("not-a-date")`, false},
		{`HasPoster and ID == 550`, true},
		{`len(GenreIDs) == 2`, true},
		{`Year >= yearsAgo(500)`, true},
		{`parseDate(ReleaseDate).Year() == 1999`, true},
	}

	compiler := NewExprCompiler()
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			filter, err := compiler.Compile(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, filter.Evaluate(movie))
		})
	}
}

func TestMissingReleaseDate(t *testing.T) {
	movie := tmdb.Movie{ID: 1, Title: "TBA"}

	for _, expression := range []string{`releasedAfter("1900-01-01")`, `releasedBefore("2999-01-01")`, `Year > 0`} {
		filter, err := NewExprCompiler().Compile(expression)
		require.NoError(t, err)
		assert.False(t, filter.Evaluate(movie), expression)
	}
}

func TestRuntimeErrorIsNoMatch(t *testing.T) {
	filter, err := NewExprCompiler().Compile(`GenreIDs[5] == 1`)
	require.NoError(t, err)

	movie := testMovie()
	assert.False(t, filter.Evaluate(movie))

	_, err = filter.Match(movie)
	var evalErr *EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, int64(550), evalErr.MovieID)
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isClassic": func(year int) bool { return year < 2000 },
	}))

	filter, err := compiler.Compile(`isClassic(Year)`)
	require.NoError(t, err)
	assert.True(t, filter.Evaluate(testMovie()))
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`hasGenre(18)`)
	require.NoError(t, err)
	again, err := compiler.Compile(`  hasGenre(18) `)
	require.NoError(t, err)
	assert.Same(t, first, again, "cache hit returns the same filter")
	assert.Equal(t, 1, compiler.Size())

	_, err = compiler.Compile(`Year > 2000`)
	require.NoError(t, err)
	_, err = compiler.Compile(`Year > 2010`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size(), "least recently used entry is evicted")

	evicted, err := compiler.Compile(`hasGenre(18)`)
	require.NoError(t, err)
	assert.NotSame(t, first, evicted)

	compiler.Clear()
	assert.Zero(t, compiler.Size())

	_, err = compiler.Compile(``)
	require.Error(t, err)
	assert.Zero(t, compiler.Size(), "failures are not cached")
}

func TestApply(t *testing.T) {
	movies := []tmdb.Movie{
		{ID: 1, Title: "A", VoteAverage: 9},
		{ID: 2, Title: "B", VoteAverage: 5},
		{ID: 3, Title: "C", VoteAverage: 7.5},
	}

	filter, err := CompileFilter(`VoteAverage >= 7`)
	require.NoError(t, err)

	kept := Apply(filter, movies)
	require.Len(t, kept, 2)
	assert.Equal(t, int64(1), kept[0].ID)
	assert.Equal(t, int64(3), kept[1].ID)

	assert.Empty(t, Apply(filter, nil))
}
