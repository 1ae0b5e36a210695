package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/config"
	"github.com/s0up4200/flickpick/display"
	"github.com/s0up4200/flickpick/recommend"
)

var (
	recGenre          int64
	recFilter         string
	recPreset         string
	recLimit          int
	recIncludeWatched bool
	recListOnly       bool
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Pick something to watch",
	Long: `Shuffle top rated and popular movies (or one genre) you have not watched yet
and step through them one at a time.

While browsing:
  n / Enter   next movie
  p           previous movie
  f           toggle favorite
  w           toggle watched
  q           quit

Filter expressions work on Title, Overview, VoteAverage, ReleaseDate, Year and
GenreIDs, e.g. --filter 'VoteAverage >= 7.5 && Year >= 2000'.`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().Int64VarP(&recGenre, "genre", "g", 0, "only recommend movies in this genre ID")
	recommendCmd.Flags().StringVarP(&recFilter, "filter", "f", "", "filter expression")
	recommendCmd.Flags().StringVarP(&recPreset, "preset", "p", "", "use a preset filter from config")
	recommendCmd.Flags().IntVarP(&recLimit, "limit", "n", 0, "number of movies to recommend (default from config)")
	recommendCmd.Flags().BoolVar(&recIncludeWatched, "include-watched", false, "also recommend movies you already watched")
	recommendCmd.Flags().BoolVar(&recListOnly, "list", false, "print the recommendations instead of browsing them")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	expression, err := filterExpression(recFilter, recPreset, cfg.Filters)
	if err != nil {
		return err
	}

	req := recommend.Request{
		GenreID:        recGenre,
		Filter:         expression,
		Limit:          cfg.Recommend.Limit,
		IncludeWatched: cfg.Recommend.IncludeWatched,
	}
	if cmd.Flags().Changed("limit") {
		req.Limit = recLimit
	}
	if cmd.Flags().Changed("include-watched") {
		req.IncludeWatched = recIncludeWatched
	}

	if expression != "" {
		logger.Info().Str("filter", expression).Msg("Filtering recommendations")
	}

	user := currentUser()
	session, err := engine.Build(cmd.Context(), user, req)
	if err != nil {
		return err
	}

	if recListOnly || !display.IsTerminal(os.Stdin) {
		fmt.Print(formatter.FormatMovieList("Recommendations", session.Movies(), userMarks(cmd.Context())))
		return nil
	}

	b := &browser{
		details: engine.Details,
		toggle:  annotations.Toggle,
		format:  formatter,
		logger:  logger,
		in:      os.Stdin,
		out:     os.Stdout,
		userID:  user,
	}
	return b.run(cmd.Context(), session)
}

// filterExpression determines the filter expression to use.
// Priority: command line filter > preset > none.
func filterExpression(expression, preset string, presets config.FilterConfig) (string, error) {
	if expression != "" {
		return expression, nil
	}

	if preset != "" {
		if presetFilter, ok := presets[strings.ToLower(preset)]; ok {
			return presetFilter, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}

// browser steps through a recommendation session on the terminal
type browser struct {
	details func(ctx context.Context, userID string, movieID int64) (*recommend.Card, error)
	toggle  func(ctx context.Context, userID string, movieID int64, kind annotation.Kind) (bool, error)
	format  *display.ConsoleFormatter
	logger  zerolog.Logger
	in      io.Reader
	out     io.Writer
	userID  string
}

const browserPrompt = "\n[n]ext  [p]rev  [f]avorite  [w]atched  [q]uit: "

func (b *browser) run(ctx context.Context, session *recommend.Session) error {
	if session.Len() == 0 {
		fmt.Fprintln(b.out, "No recommendations found. Try another genre or a looser filter.")
		return nil
	}

	scanner := bufio.NewScanner(b.in)
	render := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		movie, _ := session.Current()
		if render {
			fmt.Fprint(b.out, b.format.FormatCard(b.card(ctx, movie.ID, session), session.Index(), session.Len()))
			render = false
		}

		fmt.Fprint(b.out, browserPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(b.out)
			return scanner.Err()
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "n", "next":
			if session.Next() {
				render = true
			} else {
				fmt.Fprintln(b.out, "That was the last recommendation.")
			}
		case "p", "prev", "b", "back":
			if session.Prev() {
				render = true
			} else {
				fmt.Fprintln(b.out, "Already at the first recommendation.")
			}
		case "f", "fav", "favorite":
			b.mark(ctx, movie.Title, movie.ID, annotation.Favorite)
		case "w", "watched":
			b.mark(ctx, movie.Title, movie.ID, annotation.Watched)
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(b.out, "Unknown command. Use n, p, f, w or q.")
		}
	}
}

// card fetches full details, falling back to the session's snapshot
func (b *browser) card(ctx context.Context, movieID int64, session *recommend.Session) *recommend.Card {
	card, err := b.details(ctx, b.userID, movieID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("movie_id", movieID).Msg("Could not load movie details")
		movie, _ := session.Current()
		return &recommend.Card{Movie: movie}
	}
	return card
}

func (b *browser) mark(ctx context.Context, title string, movieID int64, kind annotation.Kind) {
	marked, err := b.toggle(ctx, b.userID, movieID, kind)
	if err != nil {
		fmt.Fprintf(b.out, "Could not update %s: %v\n", strings.ToLower(kind.Label()), explainIdentity(err))
		return
	}

	if marked {
		fmt.Fprintf(b.out, "✓ %s marked as %s\n", title, kind.Label())
	} else {
		fmt.Fprintf(b.out, "✗ %s no longer marked as %s\n", title, kind.Label())
	}
}
