package workflow

import (
	"fmt"
	"os"
	"time"
)

// Config holds the simulated latencies of the workflow.
type Config struct {
	UploadDelay     string `toml:"upload_delay"`
	GenerationDelay string `toml:"generation_delay"`
	StageInterval   string `toml:"stage_interval"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	UploadDelay     string
	GenerationDelay string
	StageInterval   string
}

// UploadDelayDuration returns UploadDelay as a time.Duration.
func (c *Config) UploadDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.UploadDelay)
	return d
}

// GenerationDelayDuration returns GenerationDelay as a time.Duration.
func (c *Config) GenerationDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.GenerationDelay)
	return d
}

// StageIntervalDuration returns StageInterval as a time.Duration.
func (c *Config) StageIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.StageInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.UploadDelay != "" {
		c.UploadDelay = overlay.UploadDelay
	}
	if overlay.GenerationDelay != "" {
		c.GenerationDelay = overlay.GenerationDelay
	}
	if overlay.StageInterval != "" {
		c.StageInterval = overlay.StageInterval
	}
}

func (c *Config) loadDefaults() {
	if c.UploadDelay == "" {
		c.UploadDelay = "2s"
	}
	if c.GenerationDelay == "" {
		c.GenerationDelay = "3s"
	}
	if c.StageInterval == "" {
		c.StageInterval = "750ms"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.UploadDelay != "" {
		if v := os.Getenv(env.UploadDelay); v != "" {
			c.UploadDelay = v
		}
	}
	if env.GenerationDelay != "" {
		if v := os.Getenv(env.GenerationDelay); v != "" {
			c.GenerationDelay = v
		}
	}
	if env.StageInterval != "" {
		if v := os.Getenv(env.StageInterval); v != "" {
			c.StageInterval = v
		}
	}
}

func (c *Config) validate() error {
	if d, err := time.ParseDuration(c.UploadDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid upload_delay: %q", c.UploadDelay)
	}
	if d, err := time.ParseDuration(c.GenerationDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid generation_delay: %q", c.GenerationDelay)
	}
	if d, err := time.ParseDuration(c.StageInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid stage_interval: %q", c.StageInterval)
	}
	return nil
}
