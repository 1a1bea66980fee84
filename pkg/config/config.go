package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the liked-feed archiver
type Config struct {
	// Feed API settings
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Retry schedules for metadata and download requests
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Ledger (idempotency store) settings
	Ledger LedgerConfig `yaml:"ledger" json:"ledger"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FeedConfig holds feed API configuration
type FeedConfig struct {
	// UserID is the account whose liked feed is archived
	UserID string `yaml:"user_id" json:"user_id"`
	// TokenSecret names the secret holding the bearer token
	TokenSecret string        `yaml:"token_secret" json:"token_secret"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// RetryConfig holds the retry schedules for both retry policies
type RetryConfig struct {
	// Metadata policy (list + detail requests)
	MetadataMaxAttempts    int           `yaml:"metadata_max_attempts" json:"metadata_max_attempts"`
	MetadataServerDelay    time.Duration `yaml:"metadata_server_delay" json:"metadata_server_delay"`
	MetadataRateLimitDelay time.Duration `yaml:"metadata_rate_limit_delay" json:"metadata_rate_limit_delay"`

	// Download policy (media byte fetches)
	DownloadMaxAttempts        int           `yaml:"download_max_attempts" json:"download_max_attempts"`
	DownloadServerBaseDelay    time.Duration `yaml:"download_server_base_delay" json:"download_server_base_delay"`
	DownloadRateLimitBaseDelay time.Duration `yaml:"download_rate_limit_base_delay" json:"download_rate_limit_base_delay"`
	DownloadRateLimitIncrement time.Duration `yaml:"download_rate_limit_increment" json:"download_rate_limit_increment"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// PaceDelay is the fixed courtesy wait between successful downloads
	PaceDelay time.Duration `yaml:"pace_delay" json:"pace_delay"`
	// RewriteLargePNG requests the original-size PNG rendition of each photo
	RewriteLargePNG bool `yaml:"rewrite_large_png" json:"rewrite_large_png"`
}

// LedgerConfig holds idempotency ledger configuration
type LedgerConfig struct {
	Path string `yaml:"path" json:"path"`
}

// OutputConfig holds archive output configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	// Timezone used to date-partition archive paths
	Timezone string `yaml:"timezone" json:"timezone"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			TokenSecret: "likevault/bearer-token",
			BaseURL:     "https://api.twitter.com",
			Timeout:     10 * time.Second,
		},
		Retry: RetryConfig{
			MetadataMaxAttempts:    3,
			MetadataServerDelay:    15 * time.Second,
			MetadataRateLimitDelay: 900 * time.Second,

			DownloadMaxAttempts:        10,
			DownloadServerBaseDelay:    30 * time.Second,
			DownloadRateLimitBaseDelay: 30 * time.Second,
			DownloadRateLimitIncrement: 300 * time.Second,
		},
		Download: DownloadConfig{
			Timeout:         20 * time.Second,
			PaceDelay:       3 * time.Second,
			RewriteLargePNG: true,
		},
		Ledger: LedgerConfig{
			Path: "likevault.db",
		},
		Output: OutputConfig{
			BaseDirectory: "./archive",
			Timezone:      "Asia/Tokyo",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userID := os.Getenv("LIKEVAULT_USER_ID"); userID != "" {
		c.Feed.UserID = userID
	}
	if secret := os.Getenv("LIKEVAULT_TOKEN_SECRET"); secret != "" {
		c.Feed.TokenSecret = secret
	}
	if baseURL := os.Getenv("LIKEVAULT_BASE_URL"); baseURL != "" {
		c.Feed.BaseURL = baseURL
	}
	if ledgerPath := os.Getenv("LIKEVAULT_LEDGER_PATH"); ledgerPath != "" {
		c.Ledger.Path = ledgerPath
	}
	if outputDir := os.Getenv("LIKEVAULT_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if tz := os.Getenv("LIKEVAULT_TIMEZONE"); tz != "" {
		c.Output.Timezone = tz
	}
	if pace := os.Getenv("LIKEVAULT_PACE_DELAY"); pace != "" {
		if d, err := time.ParseDuration(pace); err == nil && d >= 0 {
			c.Download.PaceDelay = d
		}
	}
	if logLevel := os.Getenv("LIKEVAULT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".likevault.yaml",
		".likevault.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "likevault", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "likevault", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".likevault.yaml"),
		filepath.Join(os.Getenv("HOME"), ".likevault.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Feed.UserID == "" {
		errs = append(errs, errors.New("feed user id is required"))
	}
	if c.Feed.TokenSecret == "" {
		errs = append(errs, errors.New("token secret name is required"))
	}
	if c.Feed.BaseURL == "" {
		errs = append(errs, errors.New("feed base URL is required"))
	}

	if c.Retry.MetadataMaxAttempts <= 0 {
		errs = append(errs, errors.New("metadata max attempts must be positive"))
	}
	if c.Retry.DownloadMaxAttempts <= 0 {
		errs = append(errs, errors.New("download max attempts must be positive"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.PaceDelay < 0 {
		errs = append(errs, errors.New("pace delay cannot be negative"))
	}

	if c.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger path is required"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.Timezone != "" {
		if _, err := time.LoadLocation(c.Output.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid timezone %q", c.Output.Timezone))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Location resolves the configured timezone, falling back to JST
// (the feed's origin offset) when the zone database is unavailable.
func (c *Config) Location() *time.Location {
	if c.Output.Timezone != "" {
		if loc, err := time.LoadLocation(c.Output.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("JST", 9*60*60)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if userID, ok := flags["user"].(string); ok && userID != "" {
		c.Feed.UserID = userID
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if ledgerPath, ok := flags["ledger"].(string); ok && ledgerPath != "" {
		c.Ledger.Path = ledgerPath
	}
	if secret, ok := flags["token-secret"].(string); ok && secret != "" {
		c.Feed.TokenSecret = secret
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".likevault.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
