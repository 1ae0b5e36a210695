package tmdb

import (
	"fmt"
	"strings"
)

// Category selects one of the curated movie listings
type Category string

const (
	Popular  Category = "popular"
	TopRated Category = "top_rated"
	Upcoming Category = "upcoming"
)

// Categories returns every listing category in display order
func Categories() []Category {
	return []Category{Popular, TopRated, Upcoming}
}

// ParseCategory accepts the category names users are likely to type
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "popular":
		return Popular, nil
	case "top_rated", "top-rated", "toprated", "top":
		return TopRated, nil
	case "upcoming":
		return Upcoming, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case Popular, TopRated, Upcoming:
		return true
	}
	return false
}

// Title returns the heading shown above the listing
func (c Category) Title() string {
	switch c {
	case Popular:
		return "Popular Movies"
	case TopRated:
		return "Top Rated Movies"
	case Upcoming:
		return "Upcoming Movies"
	default:
		return string(c)
	}
}

// Movie is an immutable snapshot from the catalog service
type Movie struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	VoteAverage float64  `json:"vote_average"`
	ReleaseDate string   `json:"release_date"`
	GenreIDs    []int64  `json:"genre_ids,omitempty"`
	Trailer     *Trailer `json:"trailer,omitempty"`
}

// Year returns the release year or an empty string
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// PosterURL returns the poster image URL at the given size, or "" without a poster
func (m Movie) PosterURL(size string) string {
	return ImageURL(m.PosterPath, size)
}

// Genre is an entry of the genre reference list
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastMember is one credited actor of a movie
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path"`
}

// Trailer is the video attached to a movie detail fetch
type Trailer struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
}

// URL returns a watchable link for the trailer
func (t Trailer) URL() string {
	if strings.EqualFold(t.Site, "YouTube") {
		return "https://www.youtube.com/watch?v=" + t.Key
	}
	return ""
}

// ImageBaseURL is the root of the catalog's image CDN
const ImageBaseURL = "https://image.tmdb.org/t/p"

// ImageURL joins a relative image path onto the CDN at the given size (e.g. "w500")
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "original"
	}
	return ImageBaseURL + "/" + size + "/" + strings.TrimLeft(path, "/")
}

// Wire types mirror the upstream JSON; they never leave the package.

type movieResult struct {
	ID          int64      `json:"id" validate:"gt=0"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview"`
	PosterPath  string     `json:"poster_path"`
	VoteAverage float64    `json:"vote_average" validate:"gte=0,lte=10"`
	ReleaseDate string     `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
	GenreIDs    []int64    `json:"genre_ids"`
	Genres      []Genre    `json:"genres"`
	Videos      *videoList `json:"videos"`
}

type pagedMovies struct {
	Page         int           `json:"page"`
	Results      []movieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type genreResult struct {
	ID   int64  `json:"id" validate:"gt=0"`
	Name string `json:"name" validate:"required"`
}

type genreList struct {
	Genres []genreResult `json:"genres"`
}

type castResult struct {
	ID          int64  `json:"id" validate:"gt=0"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

type credits struct {
	ID   int64        `json:"id"`
	Cast []castResult `json:"cast"`
}

type videoResult struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type videoList struct {
	Results []videoResult `json:"results"`
}

type errorBody struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// toMovie maps a validated wire record onto the public type
func (r movieResult) toMovie() Movie {
	m := Movie{
		ID:          r.ID,
		Title:       r.Title,
		Overview:    r.Overview,
		PosterPath:  relativePath(r.PosterPath),
		VoteAverage: r.VoteAverage,
		ReleaseDate: r.ReleaseDate,
		GenreIDs:    r.GenreIDs,
	}

	// Detail responses carry full genre objects instead of IDs
	if len(m.GenreIDs) == 0 && len(r.Genres) > 0 {
		m.GenreIDs = make([]int64, 0, len(r.Genres))
		for _, g := range r.Genres {
			m.GenreIDs = append(m.GenreIDs, g.ID)
		}
	}

	if r.Videos != nil {
		m.Trailer = pickTrailer(r.Videos.Results)
	}

	return m
}

// pickTrailer prefers an official YouTube trailer, then any YouTube trailer
func pickTrailer(videos []videoResult) *Trailer {
	var fallback *Trailer
	for _, v := range videos {
		if !strings.EqualFold(v.Site, "YouTube") || !strings.EqualFold(v.Type, "Trailer") || v.Key == "" {
			continue
		}
		t := &Trailer{Key: v.Key, Name: v.Name, Site: v.Site}
		if v.Official {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

// relativePath keeps CDN-relative paths and drops anything else
func relativePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, "://") {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
