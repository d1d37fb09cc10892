// Package config loads the service configuration from TOML files and
// ROOMSET_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/roomset/internal/sessions"
	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/database"
	"github.com/JaimeStill/roomset/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRoomsetEnv             = "ROOMSET_ENV"
	EnvRoomsetShutdownTimeout = "ROOMSET_SHUTDOWN_TIMEOUT"
	EnvRoomsetVersion         = "ROOMSET_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "ROOMSET_DB_URL",
	Host:            "ROOMSET_DB_HOST",
	Port:            "ROOMSET_DB_PORT",
	Name:            "ROOMSET_DB_NAME",
	User:            "ROOMSET_DB_USER",
	Password:        "ROOMSET_DB_PASSWORD",
	SSLMode:         "ROOMSET_DB_SSL_MODE",
	MaxOpenConns:    "ROOMSET_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ROOMSET_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ROOMSET_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ROOMSET_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Driver:           "ROOMSET_STORAGE_DRIVER",
	ContainerName:    "ROOMSET_STORAGE_CONTAINER_NAME",
	ConnectionString: "ROOMSET_STORAGE_CONNECTION_STRING",
	ServiceURL:       "ROOMSET_STORAGE_SERVICE_URL",
}

var workflowEnv = &workflow.Env{
	UploadDelay:     "ROOMSET_WORKFLOW_UPLOAD_DELAY",
	GenerationDelay: "ROOMSET_WORKFLOW_GENERATION_DELAY",
	StageInterval:   "ROOMSET_WORKFLOW_STAGE_INTERVAL",
}

var sessionsEnv = &sessions.Env{
	Driver:        "ROOMSET_SESSIONS_DRIVER",
	CookieName:    "ROOMSET_SESSIONS_COOKIE_NAME",
	CookieSecure:  "ROOMSET_SESSIONS_COOKIE_SECURE",
	TTL:           "ROOMSET_SESSIONS_TTL",
	PurgeInterval: "ROOMSET_SESSIONS_PURGE_INTERVAL",
}

// Config is the root configuration for the Roomset service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Log             LogConfig       `toml:"log"`
	API             APIConfig       `toml:"api"`
	App             AppConfig       `toml:"app"`
	Workflow        workflow.Config `toml:"workflow"`
	Sessions        sessions.Config `toml:"sessions"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the ROOMSET_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRoomsetEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// UsesDatabase reports whether any component needs the database.
func (c *Config) UsesDatabase() bool {
	return c.Sessions.Driver == sessions.DriverPostgres
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with the config files looked up in dir.
func LoadFrom(dir string) (*Config, error) {
	cfg, err := read(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// LoadDatabase finalizes only the database section, for tools that need
// nothing else.
func LoadDatabase() (*database.Config, error) {
	cfg, err := read(".")
	if err != nil {
		return nil, err
	}
	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &cfg.Database, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Log.Merge(&overlay.Log)
	c.API.Merge(&overlay.API)
	c.App.Merge(&overlay.App)
	c.Workflow.Merge(&overlay.Workflow)
	c.Sessions.Merge(&overlay.Sessions)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.App.Finalize(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if c.API.BasePath == c.App.BasePath {
		return fmt.Errorf("api and app cannot share base path %s", c.API.BasePath)
	}
	if err := c.Workflow.Finalize(workflowEnv); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Sessions.Finalize(sessionsEnv); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if c.UsesDatabase() {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvRoomsetShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvRoomsetVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func read(dir string) (*Config, error) {
	cfg := &Config{}

	base := filepath.Join(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvRoomsetEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
