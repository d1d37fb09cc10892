// Package web provides infrastructure for serving server-rendered pages with
// Go templates and embedded static assets.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

// ViewData contains the data passed to page templates during rendering.
// BasePath enables portable URL generation in templates via {{ .BasePath }}.
type ViewData struct {
	Title    string
	BasePath string
	APIPath  string
	Data     any
}

// LoadFunc produces the page data for a request.
type LoadFunc func(r *http.Request) (any, error)

// TemplateSet holds templates parsed once at startup together with the
// paths every page needs for URL generation.
type TemplateSet struct {
	tmpl     *template.Template
	basePath string
	apiPath  string
}

// NewTemplateSet parses every file matching patterns in fsys into a single
// template tree. Parsing at startup surfaces template errors before the
// server accepts traffic.
func NewTemplateSet(fsys fs.FS, funcs template.FuncMap, basePath, apiPath string, patterns ...string) (*TemplateSet, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateSet{
		tmpl:     tmpl,
		basePath: basePath,
		apiPath:  apiPath,
	}, nil
}

// Render executes the named template into a buffer and writes it only when
// execution succeeds.
func (ts *TemplateSet) Render(w http.ResponseWriter, status int, name string, data ViewData) error {
	var buf bytes.Buffer
	if err := ts.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// PageHandler returns an HTTP handler that loads page data and renders the
// named template with it.
func (ts *TemplateSet) PageHandler(logger *slog.Logger, name, title string, load LoadFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data any
		if load != nil {
			d, err := load(r)
			if err != nil {
				logger.Error("page load failed", "template", name, "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			data = d
		}

		view := ViewData{
			Title:    title,
			BasePath: ts.basePath,
			APIPath:  ts.apiPath,
			Data:     data,
		}
		if err := ts.Render(w, http.StatusOK, name, view); err != nil {
			logger.Error("page render failed", "template", name, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
