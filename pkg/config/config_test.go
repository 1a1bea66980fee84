package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Feed.UserID = "12345"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retry.MetadataMaxAttempts != 3 {
		t.Errorf("Expected 3 metadata attempts, got %d", cfg.Retry.MetadataMaxAttempts)
	}
	if cfg.Retry.MetadataServerDelay != 15*time.Second {
		t.Errorf("Expected 15s metadata delay, got %v", cfg.Retry.MetadataServerDelay)
	}
	if cfg.Retry.MetadataRateLimitDelay != 900*time.Second {
		t.Errorf("Expected 900s metadata rate-limit delay, got %v", cfg.Retry.MetadataRateLimitDelay)
	}
	if cfg.Retry.DownloadMaxAttempts != 10 {
		t.Errorf("Expected 10 download attempts, got %d", cfg.Retry.DownloadMaxAttempts)
	}
	if cfg.Download.PaceDelay != 3*time.Second {
		t.Errorf("Expected 3s pace delay, got %v", cfg.Download.PaceDelay)
	}
	if !cfg.Download.RewriteLargePNG {
		t.Error("Expected PNG rewrite enabled by default")
	}
	if cfg.Output.Timezone != "Asia/Tokyo" {
		t.Errorf("Expected Asia/Tokyo partition timezone, got %q", cfg.Output.Timezone)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing user id",
			mutate:  func(c *Config) { c.Feed.UserID = "" },
			wantErr: "user id",
		},
		{
			name:    "missing token secret",
			mutate:  func(c *Config) { c.Feed.TokenSecret = "" },
			wantErr: "token secret",
		},
		{
			name:    "zero metadata attempts",
			mutate:  func(c *Config) { c.Retry.MetadataMaxAttempts = 0 },
			wantErr: "metadata max attempts",
		},
		{
			name:    "negative pace delay",
			mutate:  func(c *Config) { c.Download.PaceDelay = -time.Second },
			wantErr: "pace delay",
		},
		{
			name:    "missing ledger path",
			mutate:  func(c *Config) { c.Ledger.Path = "" },
			wantErr: "ledger path",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "log level",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Output.Timezone = "Nowhere/Invalid" },
			wantErr: "timezone",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := validConfig()
			test.mutate(cfg)

			err := cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", test.wantErr, err)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LIKEVAULT_USER_ID", "99999")
	t.Setenv("LIKEVAULT_LEDGER_PATH", "/tmp/custom.db")
	t.Setenv("LIKEVAULT_PACE_DELAY", "5s")
	t.Setenv("LIKEVAULT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Feed.UserID != "99999" {
		t.Errorf("Expected user id from env, got %q", cfg.Feed.UserID)
	}
	if cfg.Ledger.Path != "/tmp/custom.db" {
		t.Errorf("Expected ledger path from env, got %q", cfg.Ledger.Path)
	}
	if cfg.Download.PaceDelay != 5*time.Second {
		t.Errorf("Expected 5s pace delay, got %v", cfg.Download.PaceDelay)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
feed:
  user_id: "55555"
retry:
  metadata_max_attempts: 5
download:
  pace_delay: 1s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Feed.UserID != "55555" {
		t.Errorf("Expected user id from file, got %q", cfg.Feed.UserID)
	}
	if cfg.Retry.MetadataMaxAttempts != 5 {
		t.Errorf("Expected overridden attempts, got %d", cfg.Retry.MetadataMaxAttempts)
	}
	if cfg.Download.PaceDelay != time.Second {
		t.Errorf("Expected overridden pace delay, got %v", cfg.Download.PaceDelay)
	}
	// Untouched fields keep their defaults.
	if cfg.Retry.DownloadMaxAttempts != 10 {
		t.Errorf("Expected default download attempts, got %d", cfg.Retry.DownloadMaxAttempts)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := validConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"user":   "flag-user",
		"output": "/data/archive",
		"ledger": "/data/ledger.db",
	})

	if cfg.Feed.UserID != "flag-user" {
		t.Errorf("Expected flag user id, got %q", cfg.Feed.UserID)
	}
	if cfg.Output.BaseDirectory != "/data/archive" {
		t.Errorf("Expected flag output dir, got %q", cfg.Output.BaseDirectory)
	}
	if cfg.Ledger.Path != "/data/ledger.db" {
		t.Errorf("Expected flag ledger path, got %q", cfg.Ledger.Path)
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Timezone = "Not/AZone"

	loc := cfg.Location()
	_, offset := time.Date(2022, 10, 5, 0, 0, 0, 0, time.UTC).In(loc).Zone()
	if offset != 9*60*60 {
		t.Errorf("Expected +9h fallback offset, got %d", offset)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := validConfig()
	cfg.Output.BaseDirectory = "/data/archive"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Feed.UserID != cfg.Feed.UserID || loaded.Output.BaseDirectory != cfg.Output.BaseDirectory {
		t.Errorf("Config did not round-trip: %+v", loaded)
	}
}
