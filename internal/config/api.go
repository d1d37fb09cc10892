package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/roomset/pkg/formatting"
	"github.com/JaimeStill/roomset/pkg/middleware"
	"github.com/JaimeStill/roomset/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ROOMSET_CORS_ENABLED",
	Origins:          "ROOMSET_CORS_ORIGINS",
	AllowedMethods:   "ROOMSET_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ROOMSET_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ROOMSET_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ROOMSET_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ROOMSET_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ROOMSET_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, upload, CORS, and pagination settings.
type APIConfig struct {
	BasePath        string                `toml:"base_path"`
	MaxUploadMemory string                `toml:"max_upload_memory"`
	CORS            middleware.CORSConfig `toml:"cors"`
	Pagination      pagination.Config     `toml:"pagination"`
}

// MaxUploadMemoryBytes returns how much of a multipart upload is held in
// memory before spilling to temporary files.
func (c *APIConfig) MaxUploadMemoryBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadMemory)
	if err != nil {
		return 32 << 20
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := validateBasePath(c.BasePath); err != nil {
		return err
	}
	if _, err := formatting.ParseBytes(c.MaxUploadMemory); err != nil {
		return fmt.Errorf("invalid max_upload_memory: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadMemory != "" {
		c.MaxUploadMemory = overlay.MaxUploadMemory
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadMemory == "" {
		c.MaxUploadMemory = "32MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ROOMSET_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ROOMSET_API_MAX_UPLOAD_MEMORY"); v != "" {
		c.MaxUploadMemory = v
	}
}
