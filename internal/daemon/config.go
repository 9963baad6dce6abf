// Package daemon manages the accolade daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Engine       EngineConfig       `toml:"engine"`
	Celebrations CelebrationsConfig `toml:"celebrations"`
	Catalog      CatalogConfig      `toml:"catalog"`
	API          APIConfig          `toml:"api"`
	Health       HealthConfig       `toml:"health"`
	Storage      StorageConfig      `toml:"storage"`
	Telemetry    TelemetryConfig    `toml:"telemetry"`
}

// EngineConfig tunes the progress engine.
type EngineConfig struct {
	StreakWindow    string `toml:"streak_window"`    // duration, default "24h"
	StreakThreshold int    `toml:"streak_threshold"` // default 3
	SourceBuffer    int    `toml:"source_buffer"`    // trigger channel depth
}

// CelebrationsConfig tunes the celebration scheduler.
type CelebrationsConfig struct {
	Enabled          bool    `toml:"enabled"`
	Capacity         int     `toml:"capacity"`
	MaxConcurrent    int     `toml:"max_concurrent"`
	WakeInterval     string  `toml:"wake_interval"`
	HistorySize      int     `toml:"history_size"`
	PriorityEviction bool    `toml:"priority_eviction"`
	DurationScale    float64 `toml:"duration_scale"`
}

// CatalogConfig locates the accomplishment catalog.
type CatalogConfig struct {
	// Path to a catalog TOML file. Empty uses the embedded default set.
	Path string `toml:"path"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// HealthConfig controls the service health monitor.
type HealthConfig struct {
	CheckInterval string `toml:"check_interval"` // default "5s"
}

// StorageConfig controls the durable history store.
type StorageConfig struct {
	// Dir for history.db. Empty uses the accolade home; "off" disables
	// persistence entirely.
	Dir string `toml:"dir"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns sensible daemon defaults.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			StreakWindow:    "24h",
			StreakThreshold: 3,
			SourceBuffer:    256,
		},
		Celebrations: CelebrationsConfig{
			Enabled:          true,
			Capacity:         10,
			MaxConcurrent:    3,
			WakeInterval:     "500ms",
			HistorySize:      20,
			PriorityEviction: true,
			DurationScale:    1.0,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7410,
		},
		Health: HealthConfig{
			CheckInterval: "5s",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from <home>/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(accoladeHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // no config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to <home>/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(accoladeHome(), "config.toml")
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

// accoladeHome returns the accolade data directory.
func accoladeHome() string {
	if env := os.Getenv("ACCOLADE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".accolade")
}

// Home is exported for use by other packages.
func Home() string {
	return accoladeHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
