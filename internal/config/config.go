// Package config loads runner settings in layers: built-in defaults, then
// an optional YAML file, then TAPPEDOUT_* environment variables.
//
// Environment keys map to dotted paths by dropping the prefix, lowering
// the case and turning underscores into dots:
//
//	TAPPEDOUT_LOG_LEVEL=debug    -> log.level
//	TAPPEDOUT_RUN_TIMEOUT=2s     -> run.timeout
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TAPPEDOUT_"

// Config is the complete runner configuration.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Run       RunConfig       `koanf:"run"`
	Store     StoreConfig     `koanf:"store"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// LogConfig controls operational logging. Report output is unaffected.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
	File   string `koanf:"file"`   // optional JSON log file
}

// RunConfig controls the scheduler.
type RunConfig struct {
	// Timeout is applied to every entry. Zero disables it.
	Timeout   time.Duration `koanf:"timeout"`
	Autostart bool          `koanf:"autostart"`
}

// StoreConfig points at the run history database. Empty disables recording.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// TelemetryConfig selects the OpenTelemetry exporter.
type TelemetryConfig struct {
	Exporter string `koanf:"exporter"` // none, stdout
}

var defaults = map[string]any{
	"log.level":          "info",
	"log.format":         "text",
	"log.file":           "",
	"run.timeout":        "0s",
	"run.autostart":      true,
	"store.path":         "",
	"telemetry.exporter": "none",
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults alone always decode.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Load builds the configuration. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

// Validate rejects values the runner cannot act on.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout: must not be negative, got %s", c.Run.Timeout)
	}
	switch c.Telemetry.Exporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("telemetry.exporter: unknown exporter %q (want none or stdout)", c.Telemetry.Exporter)
	}
	return nil
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
