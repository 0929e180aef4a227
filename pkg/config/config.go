// Package config loads seam settings from TOML.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chazu/seam/pkg/geokey"
	"github.com/pelletier/go-toml/v2"
)

type KeysConfig struct {
	// Decimals is the number of decimal places vertex coordinates are
	// rounded to before comparison. Negative means exact equality.
	Decimals int `toml:"decimals"`
}

type SewingConfig struct {
	Tolerance float64 `toml:"tolerance"`
}

type BorderConfig struct {
	Tolerance float64 `toml:"tolerance"`
}

type EngineConfig struct {
	Timeout string `toml:"timeout"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Keys   KeysConfig   `toml:"keys"`
	Sewing SewingConfig `toml:"sewing"`
	Border BorderConfig `toml:"border"`
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Keys:   KeysConfig{Decimals: geokey.DefaultDecimals},
		Sewing: SewingConfig{Tolerance: 0.01},
		Border: BorderConfig{Tolerance: 1e-5},
		Engine: EngineConfig{Timeout: "5s"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path and overlays it on the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return Parse(data)
}

// Parse overlays TOML data on the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Keys.Decimals > geokey.MaxDecimals {
		return fmt.Errorf("config: keys.decimals must be at most %d, got %d", geokey.MaxDecimals, c.Keys.Decimals)
	}
	if c.Sewing.Tolerance <= 0 {
		return fmt.Errorf("config: sewing.tolerance must be positive, got %g", c.Sewing.Tolerance)
	}
	if c.Border.Tolerance <= 0 {
		return fmt.Errorf("config: border.tolerance must be positive, got %g", c.Border.Tolerance)
	}
	if _, err := c.EngineTimeout(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Keyer returns the key policy selected by Keys.Decimals.
func (c *Config) Keyer() *geokey.Keyer {
	if c.Keys.Decimals < 0 {
		return geokey.NewKeyer(geokey.Exact())
	}
	return geokey.NewKeyer(geokey.Decimals(c.Keys.Decimals))
}

// EngineTimeout parses Engine.Timeout.
func (c *Config) EngineTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: engine.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: engine.timeout must be positive, got %s", d)
	}
	return d, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return l, nil
}
