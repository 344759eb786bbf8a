package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GROVE_"

// EnvFile names the variable holding an optional YAML config path.
const EnvFile = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GROVE_CONFIG is set
//  3. env (prefix GROVE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GROVE_SETTINGS_PATH -> settings_path, GROVE_PROFILE_STRESS_LEVEL -> profile.stress_level,
	// GROVE_METRICS_NAMESPACE -> metrics.namespace.
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.Profile = cfg.Profile.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	for _, section := range []string{"profile", "metrics"} {
		if rest, ok := strings.CutPrefix(s, section+"_"); ok {
			return section + "." + rest
		}
	}
	return s
}

// Validate checks the values Load cannot express through types alone.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.SettingsBackend) {
	case "memory":
	case "sqlite", "file":
		if c.SettingsPath == "" {
			return fmt.Errorf("%w: settings_path must not be empty for %s", ErrInvalidConfig, c.SettingsBackend)
		}
	default:
		return fmt.Errorf("%w: unknown settings_backend %q", ErrInvalidConfig, c.SettingsBackend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Metrics.RefreshInterval < 0 {
		return fmt.Errorf("%w: metrics.refresh_interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}
