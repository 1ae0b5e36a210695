package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/display"
	"github.com/s0up4200/flickpick/tmdb"
)

// moviesCmd represents the movies command
var moviesCmd = &cobra.Command{
	Use:       "movies <popular|top-rated|upcoming>",
	Short:     "List popular, top rated or upcoming movies",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"popular", "top-rated", "upcoming"},
	RunE:      runMovies,
}

// genresCmd represents the genres command
var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List the movie genres",
	Args:  cobra.NoArgs,
	RunE:  runGenres,
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <title>",
	Short: "Search movies by title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

// genreCmd represents the genre command
var genreCmd = &cobra.Command{
	Use:   "genre <genre-id>",
	Short: "List movies in a genre",
	Long:  `List movies in a genre. Run "flickpick genres" to see the genre IDs.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGenre,
}

// movieCmd represents the movie command
var movieCmd = &cobra.Command{
	Use:   "movie <movie-id>",
	Short: "Show a movie with its cast and trailer",
	Args:  cobra.ExactArgs(1),
	RunE:  runMovie,
}

func init() {
	rootCmd.AddCommand(moviesCmd)
	rootCmd.AddCommand(genresCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(genreCmd)
	rootCmd.AddCommand(movieCmd)
}

func runMovies(cmd *cobra.Command, args []string) error {
	category, err := tmdb.ParseCategory(args[0])
	if err != nil {
		return err
	}

	movies, err := catalog.ListByCategory(cmd.Context(), category)
	if err != nil {
		return err
	}

	fmt.Print(formatter.FormatMovieList(category.Title(), movies, userMarks(cmd.Context())))
	return nil
}

func runGenres(cmd *cobra.Command, args []string) error {
	genres, err := catalog.ListGenres(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Print(formatter.FormatGenres(genres))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	movies, err := catalog.SearchByTitle(cmd.Context(), query)
	if err != nil {
		return err
	}

	fmt.Print(formatter.FormatMovieList(fmt.Sprintf("Results for %q", strings.TrimSpace(query)), movies, userMarks(cmd.Context())))
	return nil
}

func runGenre(cmd *cobra.Command, args []string) error {
	genreID, err := parseMovieID(args[0])
	if err != nil {
		return fmt.Errorf("invalid genre ID %q", args[0])
	}

	movies, err := catalog.ListByGenre(cmd.Context(), genreID)
	if err != nil {
		return err
	}

	fmt.Print(formatter.FormatMovieList(fmt.Sprintf("Genre %d", genreID), movies, userMarks(cmd.Context())))
	return nil
}

func runMovie(cmd *cobra.Command, args []string) error {
	movieID, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	card, err := engine.Details(cmd.Context(), currentUser(), movieID)
	if err != nil {
		return err
	}

	fmt.Print(formatter.FormatCard(card, 0, 0))
	return nil
}

// userMarks loads the current user's lists for list badges. Failures only cost the badges.
func userMarks(ctx context.Context) *display.Marks {
	user := currentUser()
	if user == "" {
		return nil
	}

	favorites, err := annotations.ListMarkedIDs(ctx, user, annotation.Favorite)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not load favorites")
		return nil
	}
	watched, err := annotations.ListMarkedIDs(ctx, user, annotation.Watched)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not load watched list")
		return nil
	}

	return &display.Marks{Favorites: favorites, Watched: watched}
}
