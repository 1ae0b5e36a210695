package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/flickpick/cloud"
	"github.com/s0up4200/flickpick/identity"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the catalog and storage connections",
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token for the current user",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

// initTablesCmd represents the init-tables command
var initTablesCmd = &cobra.Command{
	Use:   "init-tables",
	Short: "Create the annotations and profiles tables if they do not exist",
	Args:  cobra.NoArgs,
	RunE:  runInitTables,
}

var tokenTTL time.Duration

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default from config)")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(initTablesCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Printf("Testing connection to the catalog at %s...\n", cfg.TMDB.URL)
	if err := catalog.Ping(ctx); err != nil {
		return fmt.Errorf("catalog connection failed: %w", err)
	}
	fmt.Println("✓ Catalog connection successful!")

	genres, err := catalog.ListGenres(ctx)
	if err != nil {
		return fmt.Errorf("failed to get genres: %w", err)
	}
	fmt.Printf("- Genres: %d\n", len(genres))

	fmt.Printf("\nTesting DynamoDB tables in %s...\n", cfg.AWS.Region)
	for _, table := range []string{cfg.Annotations.Table, cfg.Profile.Table} {
		status, err := cloud.TableStatus(ctx, dynamo, table)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", table, err)
			continue
		}
		fmt.Printf("✓ %s: %s\n", table, status)
	}

	fmt.Printf("\nAvatar uploads: %s\n", boolToStatus(cfg.Profile.Bucket != ""))
	fmt.Printf("API authentication: %s\n", boolToStatus(cfg.Identity.JWTSecret != ""))
	if user := currentUser(); user != "" {
		fmt.Printf("Signed in as: %s\n", user)
	} else {
		fmt.Println("Signed in as: nobody (set identity.user_id or pass --user)")
	}

	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	user := currentUser()
	if user == "" {
		return explainIdentity(identity.ErrNoIdentity)
	}
	if cfg.Identity.JWTSecret == "" {
		return errors.New("identity.jwt_secret is required to mint tokens")
	}

	signer, err := identity.NewJWT(cfg.Identity.JWTSecret, cfg.Identity.Issuer)
	if err != nil {
		return err
	}

	ttl := cfg.Identity.TokenTTL
	if tokenTTL > 0 {
		ttl = tokenTTL
	}

	token, err := signer.Sign(user, ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func runInitTables(cmd *cobra.Command, args []string) error {
	specs := []cloud.TableSpec{
		{Name: cfg.Annotations.Table, PartitionKey: "user_id", SortKey: "sk"},
		{Name: cfg.Profile.Table, PartitionKey: "user_id"},
	}

	for _, spec := range specs {
		created, err := cloud.EnsureTable(cmd.Context(), dynamo, spec)
		if err != nil {
			return err
		}
		if created {
			logger.Info().Str("table", spec.Name).Msg("Created table")
		} else {
			logger.Info().Str("table", spec.Name).Msg("Table already exists")
		}
	}

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
