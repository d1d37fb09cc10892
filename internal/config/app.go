package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/roomset/pkg/formatting"
)

const (
	EnvAppBasePath        = "ROOMSET_APP_BASE_PATH"
	EnvAppTitle           = "ROOMSET_APP_TITLE"
	EnvAppCompressMinSize = "ROOMSET_APP_COMPRESS_MIN_SIZE"
)

// AppConfig holds settings for the server-rendered studio page.
type AppConfig struct {
	BasePath        string `toml:"base_path"`
	Title           string `toml:"title"`
	CompressMinSize string `toml:"compress_min_size"`
}

// CompressMinSizeBytes returns the smallest response the app module
// compresses.
func (c *AppConfig) CompressMinSizeBytes() int {
	size, err := formatting.ParseBytes(c.CompressMinSize)
	if err != nil {
		return 1024
	}
	return int(size)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AppConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AppConfig) Merge(overlay *AppConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.CompressMinSize != "" {
		c.CompressMinSize = overlay.CompressMinSize
	}
}

func (c *AppConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/app"
	}
	if c.Title == "" {
		c.Title = "Roomset Studio"
	}
	if c.CompressMinSize == "" {
		c.CompressMinSize = "1KB"
	}
}

func (c *AppConfig) loadEnv() {
	if v := os.Getenv(EnvAppBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAppTitle); v != "" {
		c.Title = v
	}
	if v := os.Getenv(EnvAppCompressMinSize); v != "" {
		c.CompressMinSize = v
	}
}

func (c *AppConfig) validate() error {
	if err := validateBasePath(c.BasePath); err != nil {
		return err
	}
	if size, err := formatting.ParseBytes(c.CompressMinSize); err != nil || size < 0 {
		return fmt.Errorf("invalid compress_min_size: %q", c.CompressMinSize)
	}
	return nil
}

// validateBasePath enforces the single-segment prefixes modules accept.
func validateBasePath(p string) error {
	if !strings.HasPrefix(p, "/") || strings.Count(p, "/") != 1 || len(p) < 2 {
		return fmt.Errorf("base_path must be a single segment such as /api: %q", p)
	}
	return nil
}
