package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB        TMDBConfig        `mapstructure:"tmdb"`
	AWS         AWSConfig         `mapstructure:"aws"`
	Annotations AnnotationsConfig `mapstructure:"annotations"`
	Profile     ProfileConfig     `mapstructure:"profile"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Server      ServerConfig      `mapstructure:"server"`
	Recommend   RecommendConfig   `mapstructure:"recommend"`
	Filters     FilterConfig      `mapstructure:"filters"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// TMDBConfig holds catalog API connection details
type TMDBConfig struct {
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Breaker  BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig controls the catalog circuit breaker
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// AWSConfig holds the AWS region and optional local endpoint and static credentials
type AWSConfig struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
}

// AnnotationsConfig contains the favorite/watched store settings
type AnnotationsConfig struct {
	Table       string `mapstructure:"table"`
	Concurrency int    `mapstructure:"concurrency"`
}

// ProfileConfig contains profile and avatar storage settings.
// An empty bucket disables avatar uploads.
type ProfileConfig struct {
	Table         string `mapstructure:"table"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// IdentityConfig selects the current user for the CLI and the token secret for the API
type IdentityConfig struct {
	UserID    string        `mapstructure:"user_id"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RecommendConfig contains recommendation session defaults
type RecommendConfig struct {
	Limit          int  `mapstructure:"limit"`
	IncludeWatched bool `mapstructure:"include_watched"`
}

// FilterConfig contains named filter expressions usable as recommendation presets
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
