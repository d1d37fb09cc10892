package api

import (
	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/internal/infrastructure"
	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Workflow   workflow.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination: cfg.API.Pagination,
		Workflow:   cfg.Workflow,
	}
}
