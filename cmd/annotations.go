package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/flickpick/annotation"
)

// favoriteCmd represents the favorite command
var favoriteCmd = &cobra.Command{
	Use:   "favorite <movie-id>",
	Short: "Add or remove a movie from your favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  toggleRunner(annotation.Favorite),
}

// watchedCmd represents the watched command
var watchedCmd = &cobra.Command{
	Use:   "watched <movie-id>",
	Short: "Mark or unmark a movie as watched",
	Args:  cobra.ExactArgs(1),
	RunE:  toggleRunner(annotation.Watched),
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <movie-id>",
	Short: "Show whether a movie is a favorite and whether you watched it",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:       "list <favorites|watched>",
	Short:     "List your favorite or watched movies",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"favorites", "watched"},
	RunE:      runList,
}

var idsOnly bool

func init() {
	listCmd.Flags().BoolVar(&idsOnly, "ids", false, "print movie IDs only, without fetching details")

	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(watchedCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
}

func toggleRunner(kind annotation.Kind) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		movieID, err := parseMovieID(args[0])
		if err != nil {
			return err
		}

		marked, err := annotations.Toggle(cmd.Context(), currentUser(), movieID, kind)
		if err != nil {
			return explainIdentity(err)
		}

		title := fmt.Sprintf("Movie %d", movieID)
		if movie, err := catalog.GetMovie(cmd.Context(), movieID); err == nil {
			title = movie.Title
		}

		if marked {
			fmt.Printf("✓ %s marked as %s\n", title, kind.Label())
		} else {
			fmt.Printf("✗ %s no longer marked as %s\n", title, kind.Label())
		}
		return nil
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	movieID, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	user := currentUser()
	if user == "" {
		return explainIdentity(annotation.ErrNoIdentity)
	}

	writeStatus(cmd.Context(), os.Stdout, logger, user, movieID, annotations.IsMarked)
	return nil
}

type markChecker func(ctx context.Context, userID string, movieID int64, kind annotation.Kind) (bool, error)

// writeStatus prints one line per kind. A kind whose state cannot be loaded is
// shown as unknown with a notice; the other kinds are still printed.
func writeStatus(ctx context.Context, w io.Writer, log zerolog.Logger, user string, movieID int64, isMarked markChecker) {
	fmt.Fprintf(w, "Movie %d:\n", movieID)

	unavailable := false
	kinds := annotation.Kinds()
	for i, kind := range kinds {
		state := "unknown"
		marked, err := isMarked(ctx, user, movieID, kind)
		if err != nil {
			log.Warn().Err(err).Int64("movie_id", movieID).Str("kind", string(kind)).Msg("Could not load annotation state")
			unavailable = true
		} else {
			state = yesNo(marked)
		}

		prefix := "├── "
		if i == len(kinds)-1 {
			prefix = "╰── "
		}
		fmt.Fprintf(w, "%s%s: %s\n", prefix, kind.Label(), state)
	}

	if unavailable {
		fmt.Fprintln(w, "Your lists are temporarily unavailable, try again later.")
	}
}

func runList(cmd *cobra.Command, args []string) error {
	kind, err := annotation.ParseKind(args[0])
	if err != nil {
		return err
	}

	user := currentUser()
	if user == "" {
		return explainIdentity(annotation.ErrNoIdentity)
	}

	if idsOnly {
		ids, err := annotations.MarkedIDs(cmd.Context(), user, kind)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	movies, err := annotations.ListMarkedMovies(cmd.Context(), user, kind)
	if err != nil {
		return err
	}

	heading := "Favorites"
	if kind == annotation.Watched {
		heading = "Watched"
	}
	fmt.Print(formatter.FormatMovieList(heading, movies, userMarks(cmd.Context())))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
