package api

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/internal/sessions"
	"github.com/JaimeStill/roomset/internal/studio"
	"github.com/JaimeStill/roomset/internal/uploads"
	"github.com/JaimeStill/roomset/internal/workflow"
)

// Domain holds the systems that make up the studio.
type Domain struct {
	Sessions *sessions.Manager
	Uploads  *uploads.Processor
	Studio   *studio.Handler
}

// NewDomain creates the studio systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	store, err := newSessionStore(cfg, runtime)
	if err != nil {
		return nil, err
	}

	proc := uploads.New(runtime.Storage, runtime.Logger, uploads.Options{
		Delay:     runtime.Workflow.UploadDelayDuration(),
		MediaPath: cfg.API.BasePath + "/media",
	})

	factory := func(id uuid.UUID) *workflow.Controller {
		return workflow.New(workflow.Options{
			GenerationDelay: runtime.Workflow.GenerationDelayDuration(),
			Releaser:        proc,
			Logger:          runtime.Logger.With("session", id),
		})
	}

	manager := sessions.NewManager(&cfg.Sessions, store, factory, proc, runtime.Logger)

	handler := studio.NewHandler(proc, runtime.Storage, runtime.Logger, studio.Options{
		APIPath:       cfg.API.BasePath,
		AppPath:       cfg.App.BasePath,
		MaxMemory:     cfg.API.MaxUploadMemoryBytes(),
		Pagination:    runtime.Pagination,
		StageInterval: runtime.Workflow.StageIntervalDuration(),
	})

	return &Domain{
		Sessions: manager,
		Uploads:  proc,
		Studio:   handler,
	}, nil
}

func newSessionStore(cfg *config.Config, runtime *Runtime) (sessions.Store, error) {
	switch cfg.Sessions.Driver {
	case sessions.DriverPostgres:
		if runtime.Database == nil {
			return nil, fmt.Errorf("sessions driver %s requires a database", cfg.Sessions.Driver)
		}
		return sessions.NewPostgresStore(runtime.Database.Connection()), nil
	default:
		return sessions.NewMemoryStore(), nil
	}
}
