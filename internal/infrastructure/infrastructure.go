// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, lifecycle, database, storage)
// that the studio systems require.
package infrastructure

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/pkg/database"
	"github.com/JaimeStill/roomset/pkg/lifecycle"
	"github.com/JaimeStill/roomset/pkg/storage"
)

// Infrastructure holds the core systems required by the studio.
// Database is nil unless a component is configured to use Postgres, and
// Storage is nil when product images are embedded inline.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with log output written to w.
func NewWithOutput(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(&cfg.Log, w)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
	}

	if cfg.UsesDatabase() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	store, err := storage.New(&cfg.Storage, logger)
	switch {
	case errors.Is(err, storage.ErrNoDriver):
		logger.Info("product images embedded inline", "driver", cfg.Storage.Driver)
	case err != nil:
		return nil, fmt.Errorf("storage init failed: %w", err)
	default:
		infra.Storage = store
	}

	return infra, nil
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg *config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

// Ready reports whether startup completed and every backing system is usable.
func (i *Infrastructure) Ready() bool {
	if !i.Lifecycle.Ready() {
		return false
	}
	return i.Database == nil || i.Database.Ready()
}
