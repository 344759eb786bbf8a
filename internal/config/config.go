// Package config defines process configuration and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"time"

	"github.com/okian/grove/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SettingsBackend selects the settings store: memory, sqlite or file.
	SettingsBackend string `koanf:"settings_backend"`

	// SettingsPath is the database or YAML file used by durable backends.
	SettingsPath string `koanf:"settings_path"`

	// Timezone names the IANA zone that decides calendar days. "Local" uses
	// the host zone.
	Timezone string `koanf:"timezone"`

	// WatchSettings reloads the file backend when it changes on disk.
	WatchSettings bool `koanf:"watch_settings"`

	// Profile feeds the ritual generator.
	Profile model.UserProfile `koanf:"profile"`

	// Metrics shapes the exported Prometheus series.
	Metrics Metrics `koanf:"metrics"`
}

// Metrics configures metric names and sampling.
type Metrics struct {
	Namespace       string            `koanf:"namespace"`
	Subsystem       string            `koanf:"subsystem"`
	RefreshInterval time.Duration     `koanf:"refresh_interval"`
	Labels          map[string]string `koanf:"labels"`
	// Buckets are HTTP latency buckets in milliseconds.
	Buckets []float64 `koanf:"buckets"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		SettingsBackend: "sqlite",
		SettingsPath:    "grove.db",
		Timezone:        "Local",
		Profile:         model.DemoProfile(),
		Metrics: Metrics{
			Namespace:       "grove",
			Subsystem:       "growth",
			RefreshInterval: 10 * time.Second,
		},
	}
}
