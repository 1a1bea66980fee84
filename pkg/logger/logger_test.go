package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"likevault/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"bogus", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
				return
			}
			if !tt.wantErr && level != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, expected %v", tt.level, level, tt.expected)
			}
		})
	}
}

func TestWithFieldsReturnsNewLogger(t *testing.T) {
	base := Nop()
	child := base.WithField("key", "value")
	if child == base {
		t.Error("WithField must return a derived logger, not the receiver")
	}

	// The derived logger is independently usable.
	child.WithFields(map[string]interface{}{"a": 1, "b": true}).Info("test")
}

func TestWithErrorNilIsNoop(t *testing.T) {
	base := Nop()
	if got := base.WithError(nil); got != base {
		t.Error("WithError(nil) should return the receiver unchanged")
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error")
	log.InfoWithFields("fields", map[string]interface{}{"k": "v"})
}
