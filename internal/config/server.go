package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "ROOMSET_SERVER_HOST"
	EnvServerPort              = "ROOMSET_SERVER_PORT"
	EnvServerReadHeaderTimeout = "ROOMSET_SERVER_READ_HEADER_TIMEOUT"
	EnvServerReadTimeout       = "ROOMSET_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout      = "ROOMSET_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "ROOMSET_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "ROOMSET_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. A write timeout of "0s"
// disables it, which keeps event streams open indefinitely.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	ReadTimeout       string `toml:"read_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration { return duration(c.ReadHeaderTimeout) }
func (c *ServerConfig) ReadTimeoutDuration() time.Duration       { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration      { return duration(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration       { return duration(c.IdleTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration   { return duration(c.ShutdownTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for dst, v := range c.stringFields(overlay) {
		if v != "" {
			*dst = v
		}
	}
}

// stringFields pairs each string field of c with the matching field of other.
func (c *ServerConfig) stringFields(other *ServerConfig) map[*string]string {
	return map[*string]string{
		&c.Host:              other.Host,
		&c.ReadHeaderTimeout: other.ReadHeaderTimeout,
		&c.ReadTimeout:       other.ReadTimeout,
		&c.WriteTimeout:      other.WriteTimeout,
		&c.IdleTimeout:       other.IdleTimeout,
		&c.ShutdownTimeout:   other.ShutdownTimeout,
	}
}

func (c *ServerConfig) loadDefaults() {
	defaults := map[*string]string{
		&c.Host:              "0.0.0.0",
		&c.ReadHeaderTimeout: "10s",
		&c.ReadTimeout:       "1m",
		&c.WriteTimeout:      "0s",
		&c.IdleTimeout:       "2m",
		&c.ShutdownTimeout:   "30s",
	}
	for dst, v := range defaults {
		if *dst == "" {
			*dst = v
		}
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

func (c *ServerConfig) loadEnv() {
	envs := map[*string]string{
		&c.Host:              EnvServerHost,
		&c.ReadHeaderTimeout: EnvServerReadHeaderTimeout,
		&c.ReadTimeout:       EnvServerReadTimeout,
		&c.WriteTimeout:      EnvServerWriteTimeout,
		&c.IdleTimeout:       EnvServerIdleTimeout,
		&c.ShutdownTimeout:   EnvServerShutdownTimeout,
	}
	for dst, name := range envs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	timeouts := []struct {
		name  string
		value string
	}{
		{"read_header_timeout", c.ReadHeaderTimeout},
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, t := range timeouts {
		d, err := time.ParseDuration(t.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", t.name, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: must not be negative", t.name)
		}
	}
	if c.ShutdownTimeoutDuration() == 0 {
		return fmt.Errorf("invalid shutdown_timeout: must be positive")
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
