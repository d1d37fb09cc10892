// Package api assembles the API module from the studio systems.
package api

import (
	"net/http"

	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/pkg/middleware"
	"github.com/JaimeStill/roomset/pkg/module"
)

// NewModule creates the API module with the studio routes and middleware.
// Every request is bound to a session before it reaches a handler.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) *module.Module {
	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(domain.Sessions.Middleware())

	return m
}
