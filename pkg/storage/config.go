package storage

import (
	"fmt"
	"os"
)

// Supported storage drivers.
const (
	DriverInline = "inline"
	DriverMemory = "memory"
	DriverAzure  = "azure"
)

// Config selects and parameterizes the blob storage backend.
// The inline driver stores nothing and callers embed content directly.
type Config struct {
	Driver           string `toml:"driver"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Driver           string
	ContainerName    string
	ConnectionString string
	ServiceURL       string
}

// Inline reports whether blobs are embedded by callers instead of stored.
func (c *Config) Inline() bool {
	return c.Driver == DriverInline
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
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.ServiceURL != "" {
		c.ServiceURL = overlay.ServiceURL
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverInline
	}
	if c.ContainerName == "" {
		c.ContainerName = "products"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, target *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*target = v
		}
	}

	set(env.Driver, &c.Driver)
	set(env.ContainerName, &c.ContainerName)
	set(env.ConnectionString, &c.ConnectionString)
	set(env.ServiceURL, &c.ServiceURL)
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverInline, DriverMemory:
		return nil
	case DriverAzure:
		if c.ContainerName == "" {
			return fmt.Errorf("container_name required")
		}
		if c.ConnectionString == "" && c.ServiceURL == "" {
			return fmt.Errorf("connection_string or service_url required")
		}
		return nil
	default:
		return fmt.Errorf("unknown driver: %q", c.Driver)
	}
}
