// Package daemon manages the Readly daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Gamify    GamifyConfig    `toml:"gamify"`
	Reminders RemindersConfig `toml:"reminders"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// GamifyConfig controls the daily challenge.
type GamifyConfig struct {
	DailyTargetMinutes int   `toml:"daily_target_minutes"`
	ChallengeReward    int64 `toml:"challenge_reward"`
}

// RemindersConfig controls the reminder scheduler.
type RemindersConfig struct {
	Enabled           bool `toml:"enabled"`
	InactiveHour      int  `toml:"inactive_hour"`
	ParentAlertHour   int  `toml:"parent_alert_hour"`
	CleanupHour       int  `toml:"cleanup_hour"`
	InactiveAfterDays int  `toml:"inactive_after_days"`
	RetentionDays     int  `toml:"retention_days"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := readlyHome()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8374,
			CORSOrigins: []string{"*"},
		},
		Gamify: GamifyConfig{
			DailyTargetMinutes: 30,
			ChallengeReward:    50,
		},
		Reminders: RemindersConfig{
			Enabled:           true,
			InactiveHour:      20,
			ParentAlertHour:   9,
			CleanupHour:       2,
			InactiveAfterDays: 3,
			RetentionDays:     30,
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "readly.log"),
		},
	}
}

// LoadConfig reads config from ~/.readly/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(readlyHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.readly/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(readlyHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// readlyHome returns the Readly data directory.
func readlyHome() string {
	if env := os.Getenv("READLY_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".readly")
}
