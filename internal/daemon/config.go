// Package daemon manages the Qamqor service lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all service configuration.
type Config struct {
	Identity  IdentityConfig  `toml:"identity"`
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// IdentityConfig carries the two static role membership lists. Handles are
// matched case-insensitively; anyone not listed is a client.
type IdentityConfig struct {
	Developers []string `toml:"developers"`
	Workers    []string `toml:"workers"`
}

// APIConfig controls the HTTP server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig controls the SQLite data directory.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	File string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	home := qamqorHome()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8740,
		},
		Storage: StorageConfig{
			Dir: filepath.Join(home, "data"),
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.qamqor/config.toml, falling back to
// defaults when no file exists yet.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(qamqorHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.qamqor/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(qamqorHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// qamqorHome returns the Qamqor data directory.
func qamqorHome() string {
	if env := os.Getenv("QAMQOR_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".qamqor")
}
