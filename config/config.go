package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/flickpick/filter"
)

// EnvPrefix prefixes environment overrides, e.g. FLICKPICK_TMDB_API_KEY
const EnvPrefix = "FLICKPICK"

// Load loads the configuration from file and environment.
// An explicit path must exist; when searching the standard locations a missing
// file is fine as long as the environment supplies the required settings.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".flickpick"))
		}

		// Check /etc
		v.AddConfigPath("/etc/flickpick/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key gets a default so
// environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	// Catalog defaults
	v.SetDefault("tmdb.url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.timeout", "30s")
	v.SetDefault("tmdb.breaker.max_failures", 5)
	v.SetDefault("tmdb.breaker.open_timeout", "30s")

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.access_key", "")
	v.SetDefault("aws.secret_key", "")
	v.SetDefault("aws.session_token", "")

	// Store defaults
	v.SetDefault("annotations.table", "annotations")
	v.SetDefault("annotations.concurrency", 8)
	v.SetDefault("profile.table", "profiles")
	v.SetDefault("profile.bucket", "")
	v.SetDefault("profile.public_base_url", "")

	// Identity defaults
	v.SetDefault("identity.user_id", "")
	v.SetDefault("identity.jwt_secret", "")
	v.SetDefault("identity.issuer", "flickpick")
	v.SetDefault("identity.token_ttl", "24h")

	// Server defaults
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Recommendation defaults
	v.SetDefault("recommend.limit", 20)
	v.SetDefault("recommend.include_watched", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.TMDB.URL == "" {
		return fmt.Errorf("tmdb.url is required")
	}

	if cfg.TMDB.APIKey == "" || cfg.TMDB.APIKey == "your-api-key-here" {
		return fmt.Errorf("tmdb.api_key must be set to a valid API key")
	}

	if cfg.TMDB.Timeout < 0 {
		return fmt.Errorf("tmdb.timeout must not be negative")
	}

	if cfg.AWS.Region == "" {
		return fmt.Errorf("aws.region is required")
	}

	if (cfg.AWS.AccessKey == "") != (cfg.AWS.SecretKey == "") {
		return fmt.Errorf("aws.access_key and aws.secret_key must be set together")
	}

	if cfg.Annotations.Table == "" {
		return fmt.Errorf("annotations.table is required")
	}

	if cfg.Annotations.Concurrency < 1 {
		return fmt.Errorf("annotations.concurrency must be at least 1")
	}

	if cfg.Profile.Table == "" {
		return fmt.Errorf("profile.table is required")
	}

	if cfg.Identity.JWTSecret != "" && len(cfg.Identity.JWTSecret) < 16 {
		return fmt.Errorf("identity.jwt_secret must be at least 16 characters")
	}

	if cfg.Recommend.Limit < 1 || cfg.Recommend.Limit > 100 {
		return fmt.Errorf("recommend.limit must be between 1 and 100")
	}

	// Filter presets must compile
	for name, expression := range cfg.Filters {
		if _, err := filter.CompileFilter(expression); err != nil {
			return fmt.Errorf("invalid filter preset %q: %w", name, err)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// Preset returns the filter expression stored under name. Names are
// case-insensitive since viper lowercases map keys.
func (c *Config) Preset(name string) (string, error) {
	expression, ok := c.Filters[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown filter preset %q", name)
	}
	return expression, nil
}
