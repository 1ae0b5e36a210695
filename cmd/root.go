package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/cloud"
	"github.com/s0up4200/flickpick/config"
	"github.com/s0up4200/flickpick/display"
	"github.com/s0up4200/flickpick/identity"
	"github.com/s0up4200/flickpick/profile"
	"github.com/s0up4200/flickpick/recommend"
	"github.com/s0up4200/flickpick/tmdb"
)

var (
	cfgFile     string
	userFlag    string
	cfg         *config.Config
	logger      zerolog.Logger
	catalog     *tmdb.Client
	dynamo      *dynamodb.Client
	annotations *annotation.Store
	profiles    *profile.Service
	engine      *recommend.Engine
	formatter   *display.ConsoleFormatter

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flickpick",
	Short: "Browse movies and keep your favorites and watched list",
	Long: `flickpick is a CLI for browsing the movie catalog, keeping a personal list
of favorite and watched movies, and picking something to watch next.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// SetVersion records the build version shown by the version and update commands
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "user ID to act as (overrides identity.user_id)")
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)
	formatter = display.NewConsoleFormatter(os.Stdout, cfg.Logging.Color)

	// Create catalog client
	catalog, err = tmdb.NewClient(cfg.TMDB.URL, cfg.TMDB.APIKey, logger,
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithBreaker(tmdb.BreakerSettings{
			MaxFailures: cfg.TMDB.Breaker.MaxFailures,
			OpenTimeout: cfg.TMDB.Breaker.OpenTimeout,
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}

	// Create AWS clients
	awsCfg, err := cloud.LoadConfig(cmd.Context(), cloud.Options{
		Region:       cfg.AWS.Region,
		Endpoint:     cfg.AWS.Endpoint,
		AccessKey:    cfg.AWS.AccessKey,
		SecretKey:    cfg.AWS.SecretKey,
		SessionToken: cfg.AWS.SessionToken,
	})
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	dynamo = cloud.NewDynamoDB(awsCfg, cfg.AWS.Endpoint)

	annotations = annotation.NewStore(
		annotation.NewDynamoBackend(dynamo, cfg.Annotations.Table, logger),
		catalog,
		logger,
		annotation.WithConcurrency(cfg.Annotations.Concurrency),
	)

	var avatars profile.Uploader
	if cfg.Profile.Bucket != "" {
		store, err := profile.NewAvatarStore(cloud.NewS3(awsCfg, cfg.AWS.Endpoint), cfg.Profile.Bucket, cfg.Profile.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("failed to create avatar store: %w", err)
		}
		avatars = store
	}
	profiles = profile.NewService(profile.NewDynamoRepository(dynamo, cfg.Profile.Table), avatars, logger)

	engine = recommend.NewEngine(catalog, annotations, logger)

	logger.Debug().Str("user", currentUser()).Msg("Initialized")
	return nil
}

// skipInit replaces initializeApp for commands that need no configuration
func skipInit(cmd *cobra.Command, args []string) error {
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// currentUser returns the user the CLI acts as, or "" when none is configured
func currentUser() string {
	if userFlag != "" {
		return identity.Static(userFlag).UserID()
	}
	if cfg == nil {
		return ""
	}
	return identity.Static(cfg.Identity.UserID).UserID()
}

// parseMovieID parses a positive movie ID argument
func parseMovieID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid movie ID %q: must be a positive integer", arg)
	}
	return id, nil
}

// explainIdentity adds a hint to errors caused by a missing user
func explainIdentity(err error) error {
	if errors.Is(err, identity.ErrNoIdentity) {
		return fmt.Errorf("%w: set identity.user_id in the config or pass --user", err)
	}
	return err
}
