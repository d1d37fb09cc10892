package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/roomset/internal/api"
	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/internal/infrastructure"
	"github.com/JaimeStill/roomset/pkg/middleware"
	"github.com/JaimeStill/roomset/pkg/module"
	"github.com/JaimeStill/roomset/web/app"
)

type Modules struct {
	API    *module.Module
	App    *module.Module
	Domain *api.Domain
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	runtime := api.NewRuntime(cfg, infra)

	domain, err := api.NewDomain(cfg, runtime)
	if err != nil {
		return nil, err
	}

	apiModule := api.NewModule(cfg, runtime, domain)

	appModule, err := app.NewModule(app.Options{
		BasePath:      cfg.App.BasePath,
		APIPath:       cfg.API.BasePath,
		Title:         cfg.App.Title,
		StageInterval: cfg.Workflow.StageIntervalDuration(),
	}, infra.Logger)
	if err != nil {
		return nil, err
	}

	compress, err := middleware.Compress(cfg.App.CompressMinSizeBytes())
	if err != nil {
		return nil, err
	}
	appModule.Use(middleware.Logger(infra.Logger.With("module", "app")))
	appModule.Use(compress)
	appModule.Use(domain.Sessions.Middleware())

	return &Modules{
		API:    apiModule,
		App:    appModule,
		Domain: domain,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.App)
	router.Redirect("/{$}", m.App.Prefix())
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
