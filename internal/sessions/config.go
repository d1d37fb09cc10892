package sessions

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported snapshot store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config controls session identity, lifetime, and snapshot storage.
type Config struct {
	Driver        string `toml:"driver"`
	CookieName    string `toml:"cookie_name"`
	CookieSecure  bool   `toml:"cookie_secure"`
	TTL           string `toml:"ttl"`
	PurgeInterval string `toml:"purge_interval"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Driver        string
	CookieName    string
	CookieSecure  string
	TTL           string
	PurgeInterval string
}

// TTLDuration returns TTL as a time.Duration.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// PurgeIntervalDuration returns PurgeInterval as a time.Duration.
func (c *Config) PurgeIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PurgeInterval)
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

// Merge overwrites fields from overlay. CookieSecure always applies; string
// fields only apply when set.
func (c *Config) Merge(overlay *Config) {
	c.CookieSecure = overlay.CookieSecure
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.PurgeInterval != "" {
		c.PurgeInterval = overlay.PurgeInterval
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.CookieName == "" {
		c.CookieName = "roomset_session"
	}
	if c.TTL == "" {
		c.TTL = "2h"
	}
	if c.PurgeInterval == "" {
		c.PurgeInterval = "5m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Driver != "" {
		if v := os.Getenv(env.Driver); v != "" {
			c.Driver = v
		}
	}
	if env.CookieName != "" {
		if v := os.Getenv(env.CookieName); v != "" {
			c.CookieName = v
		}
	}
	if env.CookieSecure != "" {
		if v := os.Getenv(env.CookieSecure); v != "" {
			if secure, err := strconv.ParseBool(v); err == nil {
				c.CookieSecure = secure
			}
		}
	}
	if env.TTL != "" {
		if v := os.Getenv(env.TTL); v != "" {
			c.TTL = v
		}
	}
	if env.PurgeInterval != "" {
		if v := os.Getenv(env.PurgeInterval); v != "" {
			c.PurgeInterval = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if d, err := time.ParseDuration(c.TTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid ttl: %q", c.TTL)
	}
	if d, err := time.ParseDuration(c.PurgeInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid purge_interval: %q", c.PurgeInterval)
	}
	return nil
}
