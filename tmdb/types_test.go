package tmdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
		wantErr  bool
	}{
		{"popular", Popular, false},
		{"Top-Rated", TopRated, false},
		{"top_rated", TopRated, false},
		{" upcoming ", Upcoming, false},
		{"trending", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "", ImageURL("", "w500"))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", ImageURL("/abc.jpg", "w500"))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/abc.jpg", ImageURL("abc.jpg", ""))
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, "", relativePath(""))
	assert.Equal(t, "", relativePath("https://cdn.example.com/x.jpg"))
	assert.Equal(t, "/x.jpg", relativePath("x.jpg"))
	assert.Equal(t, "/x.jpg", relativePath(" /x.jpg "))
}

func TestMovieYear(t *testing.T) {
	assert.Equal(t, "", Movie{}.Year())
	assert.Equal(t, "2024", Movie{ReleaseDate: "2024-03-01"}.Year())
}

func TestPickTrailer(t *testing.T) {
	assert.Nil(t, pickTrailer(nil))

	got := pickTrailer([]videoResult{
		{Key: "a", Site: "YouTube", Type: "Trailer"},
		{Key: "b", Site: "YouTube", Type: "Trailer"},
	})
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Key, "first unofficial trailer is the fallback")
}
