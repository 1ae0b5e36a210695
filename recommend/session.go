package recommend

import "github.com/s0up4200/flickpick/tmdb"

// Session walks a fixed list of candidates. It is owned by one screen or request
// and is not safe for concurrent use.
type Session struct {
	movies []tmdb.Movie
	index  int
}

// NewSession creates a session positioned on the first movie
func NewSession(movies []tmdb.Movie) *Session {
	if movies == nil {
		movies = []tmdb.Movie{}
	}
	return &Session{movies: movies}
}

// Len returns the number of candidates
func (s *Session) Len() int {
	return len(s.movies)
}

// Index returns the position of the current movie
func (s *Session) Index() int {
	return s.index
}

// Movies returns the candidates in presentation order
func (s *Session) Movies() []tmdb.Movie {
	return s.movies
}

// Current returns the movie under the cursor, false when the session is empty
func (s *Session) Current() (tmdb.Movie, bool) {
	if len(s.movies) == 0 {
		return tmdb.Movie{}, false
	}
	return s.movies[s.index], true
}

// Next advances the cursor. It reports false at the last movie.
func (s *Session) Next() bool {
	if s.index+1 >= len(s.movies) {
		return false
	}
	s.index++
	return true
}

// Prev moves the cursor back. It reports false at the first movie.
func (s *Session) Prev() bool {
	if s.index == 0 {
		return false
	}
	s.index--
	return true
}
