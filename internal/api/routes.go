package api

import (
	"net/http"

	"github.com/JaimeStill/roomset/pkg/module"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	module.Register(
		mux,
		domain.Studio.Routes(),
	)
}
