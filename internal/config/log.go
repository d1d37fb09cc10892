package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLogLevel  = "ROOMSET_LOG_LEVEL"
	EnvLogFormat = "ROOMSET_LOG_FORMAT"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LogConfig selects the level and output format of the service logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SlogLevel returns Level as a slog.Level.
func (c *LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LogConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LogConfig) Merge(overlay *LogConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

func (c *LogConfig) loadDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = LogFormatText
	}
}

func (c *LogConfig) loadEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = strings.ToLower(v)
	}
}

func (c *LogConfig) validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level: %q", c.Level)
	}
	switch c.Format {
	case LogFormatText, LogFormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %q", c.Format)
	}
}
