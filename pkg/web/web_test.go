package web_test

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/JaimeStill/roomset/pkg/web"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/page.html": {Data: []byte(
			`{{ define "page" }}<h1>{{ .Title }}</h1><a href="{{ .BasePath }}">{{ shout .Data }}</a>{{ end }}`,
		)},
		"templates/broken.html": {Data: []byte(
			`{{ define "broken" }}{{ .Data.Missing }}{{ end }}`,
		)},
		"static/app.css": {Data: []byte("body{}")},
	}
}

func newSet(t *testing.T) *web.TemplateSet {
	t.Helper()
	funcs := template.FuncMap{"shout": func(v any) string { return strings.ToUpper(v.(string)) }}
	ts, err := web.NewTemplateSet(testFS(), funcs, "/app", "/api", "templates/*.html")
	if err != nil {
		t.Fatalf("NewTemplateSet: %v", err)
	}
	return ts
}

func TestNewTemplateSetBadPattern(t *testing.T) {
	_, err := web.NewTemplateSet(testFS(), nil, "/app", "/api", "missing/*.html")
	if err == nil {
		t.Fatal("expected error for unmatched pattern")
	}
}

func TestPageHandlerRenders(t *testing.T) {
	ts := newSet(t)
	handler := ts.PageHandler(discardLogger(), "page", "Studio", func(r *http.Request) (any, error) {
		return "hello", nil
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/app", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"<h1>Studio</h1>", `href="/app"`, "HELLO"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
}

func TestPageHandlerLoadError(t *testing.T) {
	ts := newSet(t)
	handler := ts.PageHandler(discardLogger(), "page", "Studio", func(r *http.Request) (any, error) {
		return nil, errors.New("boom")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/app", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestRenderFailureWritesNothing(t *testing.T) {
	ts := newSet(t)
	rec := httptest.NewRecorder()

	err := ts.Render(rec, http.StatusOK, "broken", web.ViewData{Data: 42})
	if err == nil {
		t.Fatal("expected render error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial output written: %q", rec.Body.String())
	}
}

func TestStatic(t *testing.T) {
	h, err := web.Static(testFS(), "static", "/static")
	if err != nil {
		t.Fatalf("Static: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"file", "/static/app.css", http.StatusOK},
		{"missing", "/static/nope.js", http.StatusNotFound},
		{"directory", "/static/", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}
