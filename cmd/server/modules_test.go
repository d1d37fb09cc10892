package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/roomset/internal/config"
	"github.com/JaimeStill/roomset/internal/infrastructure"
)

func newRouter(t *testing.T) (http.Handler, *infrastructure.Infrastructure) {
	t.Helper()
	cfg, err := config.LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	infra, err := infrastructure.NewWithOutput(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}
	modules, err := NewModules(infra, cfg)
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	t.Cleanup(modules.Domain.Sessions.Close)

	router := buildRouter(infra)
	modules.Mount(router)
	return router, infra
}

func TestRootRedirectsToApp(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/app" {
		t.Errorf("root: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAppPageIsServedWithSession(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest("GET", "/app", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("page should be compressed, got encoding %q", rec.Header().Get("Content-Encoding"))
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Errorf("session cookie not issued")
	}
}

func TestHealthAndReadiness(t *testing.T) {
	router, infra := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup: got %d", rec.Code)
	}

	infra.Lifecycle.WaitForStartup()

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ready") {
		t.Errorf("readyz after startup: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestStateEndpointThroughRouter(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/state", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"step":"upload"`) {
		t.Errorf("state: %d %s", rec.Code, rec.Body.String())
	}
}
