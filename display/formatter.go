// Package display renders catalog data for the terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/s0up4200/flickpick/profile"
	"github.com/s0up4200/flickpick/recommend"
	"github.com/s0up4200/flickpick/tmdb"
)

const (
	branch     = "├── "
	lastBranch = "╰── "
	pipe       = "│   "
	blank      = "    "

	// maxCast is the number of cast members shown on a card
	maxCast = 8
)

// Marks are the user's annotation sets shown next to each movie
type Marks struct {
	Favorites map[int64]struct{}
	Watched   map[int64]struct{}
}

// ConsoleFormatter provides console output formatting for movies
type ConsoleFormatter struct {
	title  *color.Color
	dim    *color.Color
	rating *color.Color
	badge  *color.Color
}

// NewConsoleFormatter creates a formatter that colours output only when w is a terminal
func NewConsoleFormatter(w io.Writer, enableColor bool) *ConsoleFormatter {
	f := &ConsoleFormatter{
		title:  color.New(color.Bold),
		dim:    color.New(color.Faint),
		rating: color.New(color.FgYellow),
		badge:  color.New(color.FgGreen),
	}

	if !enableColor || !IsTerminal(w) {
		for _, c := range []*color.Color{f.title, f.dim, f.rating, f.badge} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{f.title, f.dim, f.rating, f.badge} {
			c.EnableColor()
		}
	}

	return f
}

// IsTerminal reports whether w writes to a terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// FormatMovieList formats a list of movies under a heading
func (f *ConsoleFormatter) FormatMovieList(heading string, movies []tmdb.Movie, marks *Marks) string {
	if len(movies) == 0 {
		return "No movies found\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", f.title.Sprint(heading), len(movies))

	for i, movie := range movies {
		isLast := i == len(movies)-1
		prefix, indent := branch, pipe
		if isLast {
			prefix, indent = lastBranch, blank
		}

		fmt.Fprintf(&sb, "%s%s%s%s\n", prefix, f.movieHeading(movie), f.rating.Sprintf("  ★ %.1f", movie.VoteAverage), f.badges(movie.ID, marks))
		fmt.Fprintf(&sb, "%s%s\n", indent, f.dim.Sprintf("ID: %d", movie.ID))

		if movie.Overview != "" {
			fmt.Fprintf(&sb, "%s%s\n", indent, truncate(movie.Overview, 100))
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatGenres formats the genre reference list
func (f *ConsoleFormatter) FormatGenres(genres []tmdb.Genre) string {
	if len(genres) == 0 {
		return "No genres found\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", f.title.Sprint("Genres"), len(genres))
	for i, g := range genres {
		prefix := branch
		if i == len(genres)-1 {
			prefix = lastBranch
		}
		fmt.Fprintf(&sb, "%s%s %s\n", prefix, g.Name, f.dim.Sprintf("(%d)", g.ID))
	}
	sb.WriteString("\n")
	return sb.String()
}

// FormatCard formats a movie with its cast and the user's marks. position and
// total place the card within a recommendation session; total 0 omits it.
func (f *ConsoleFormatter) FormatCard(card *recommend.Card, position, total int) string {
	var sb strings.Builder
	movie := card.Movie

	sb.WriteString("\n")
	if total > 0 {
		fmt.Fprintf(&sb, "%s\n", f.dim.Sprintf("[%d/%d]", position+1, total))
	}
	fmt.Fprintf(&sb, "%s\n", f.movieHeading(movie))

	details := []string{f.rating.Sprintf("★ %.1f", movie.VoteAverage)}
	if movie.ReleaseDate != "" {
		details = append(details, "Released: "+movie.ReleaseDate)
	}
	if card.Favorite {
		details = append(details, f.badge.Sprint("Favorite"))
	}
	if card.Watched {
		details = append(details, f.badge.Sprint("Watched"))
	}
	fmt.Fprintf(&sb, "%s%s\n", pipe, strings.Join(details, " | "))

	if movie.Overview != "" {
		for _, line := range wrap(movie.Overview, 76) {
			fmt.Fprintf(&sb, "%s%s\n", pipe, line)
		}
	}

	if poster := movie.PosterURL("w500"); poster != "" {
		fmt.Fprintf(&sb, "%sPoster: %s\n", pipe, poster)
	}
	if movie.Trailer != nil && movie.Trailer.URL() != "" {
		fmt.Fprintf(&sb, "%sTrailer: %s\n", pipe, movie.Trailer.URL())
	}

	cast := card.Cast
	if len(cast) == 0 {
		fmt.Fprintf(&sb, "%sCast: %s\n", lastBranch, f.dim.Sprint("unknown"))
		return sb.String()
	}

	fmt.Fprintf(&sb, "%sCast:\n", lastBranch)
	if len(cast) > maxCast {
		cast = cast[:maxCast]
	}
	for i, member := range cast {
		prefix := branch
		if i == len(cast)-1 {
			prefix = lastBranch
		}
		line := member.Name
		if member.Character != "" {
			line += f.dim.Sprint(" as " + member.Character)
		}
		fmt.Fprintf(&sb, "%s%s%s\n", blank, prefix, line)
	}

	return sb.String()
}

// FormatProfile formats a user profile
func (f *ConsoleFormatter) FormatProfile(p *profile.Profile) string {
	var sb strings.Builder

	name := p.Name
	if name == "" {
		name = f.dim.Sprint("(no name)")
	}
	fmt.Fprintf(&sb, "\n%s\n", f.title.Sprint(name))
	fmt.Fprintf(&sb, "%sUser: %s\n", branch, p.UserID)
	if p.Email != "" {
		fmt.Fprintf(&sb, "%sEmail: %s\n", branch, p.Email)
	}
	avatar := p.ImageURL
	if avatar == "" {
		avatar = f.dim.Sprint("none")
	}
	fmt.Fprintf(&sb, "%sAvatar: %s\n", lastBranch, avatar)

	return sb.String()
}

func (f *ConsoleFormatter) movieHeading(m tmdb.Movie) string {
	if year := m.Year(); year != "" {
		return f.title.Sprint(m.Title) + " (" + year + ")"
	}
	return f.title.Sprint(m.Title)
}

func (f *ConsoleFormatter) badges(id int64, marks *Marks) string {
	if marks == nil {
		return ""
	}
	var parts []string
	if _, ok := marks.Favorites[id]; ok {
		parts = append(parts, "favorite")
	}
	if _, ok := marks.Watched[id]; ok {
		parts = append(parts, "watched")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + f.badge.Sprintf("[%s]", strings.Join(parts, ", "))
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// wrap splits text into lines no longer than width where possible
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
