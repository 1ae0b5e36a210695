package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/flickpick/identity"
	"github.com/s0up4200/flickpick/server"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Long: `Serve the catalog, annotations, recommendations and profiles over HTTP.
Requests are authenticated with HS256 bearer tokens signed with identity.jwt_secret;
mint one for testing with "flickpick token".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Identity.JWTSecret == "" {
		return errors.New("identity.jwt_secret is required to serve the API")
	}

	tokens, err := identity.NewJWT(cfg.Identity.JWTSecret, cfg.Identity.Issuer)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	srv, err := server.New(server.Deps{
		Catalog:     catalog,
		Annotations: annotations,
		Recommender: engine,
		Profiles:    profiles,
		Tokens:      tokens,
		Presets:     cfg.Filters,
	}, logger, version)
	if err != nil {
		return err
	}

	addr := cfg.Server.Listen
	if listenAddr != "" {
		addr = listenAddr
	}

	return srv.Run(cmd.Context(), addr, cfg.Server.ShutdownTimeout)
}
