// Package storage provides blob storage with in-memory and Azure Blob Storage backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/roomset/pkg/lifecycle"
)

// Blob is a downloaded object. The caller must close Body.
type Blob struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers startup hooks that prepare the backend.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns the blob at the given key.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (*Blob, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates the storage system selected by cfg.Driver.
// The inline driver has no backing system and returns ErrNoDriver.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(logger), nil
	case DriverAzure:
		return newAzure(cfg, logger)
	case DriverInline, "":
		return nil, ErrNoDriver
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
