package filter

import (
	"fmt"
	"testing"

	"github.com/s0up4200/flickpick/tmdb"
)

// generateTestMovies creates test movie data
func generateTestMovies(count int) []tmdb.Movie {
	movies := make([]tmdb.Movie, count)

	for i := 0; i < count; i++ {
		movies[i] = tmdb.Movie{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("Movie %d", i),
			VoteAverage: float64(i%10) + 0.5,
			ReleaseDate: fmt.Sprintf("%d-06-01", 1990+i%35),
			GenreIDs:    []int64{18, 28, 35, 53}[:(i%4)+1],
		}
	}

	return movies
}

func BenchmarkCompileFilter(b *testing.B) {
	expressions := []struct {
		name string
		expr string
	}{
		{"simple", `hasGenre(28)`},
		{"complex", `hasGenre(28) and Year > 2010 and VoteAverage > 7.0`},
	}

	for _, tc := range expressions {
		b.Run(tc.name, func(b *testing.B) {
			compiler := NewExprCompiler()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := compiler.Compile(tc.expr); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkApply(b *testing.B) {
	movies := generateTestMovies(1000)
	filter, err := CompileFilter(`hasGenre(28) and VoteAverage > 5 and releasedAfter("2000-01-01")`)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Apply(filter, movies)
	}
}
