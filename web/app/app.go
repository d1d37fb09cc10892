// Package app serves the server-rendered studio page and its static assets.
package app

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/roomset/internal/progress"
	"github.com/JaimeStill/roomset/internal/sessions"
	"github.com/JaimeStill/roomset/internal/studio"
	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/module"
	"github.com/JaimeStill/roomset/pkg/web"
)

//go:embed templates static
var content embed.FS

// ErrNoSession reports a page request that arrived without a session.
var ErrNoSession = errors.New("no session")

// Options configures the app module.
type Options struct {
	BasePath      string
	APIPath       string
	Title         string
	StageInterval time.Duration
}

// StepMarker is one entry of the three-step progress indicator.
type StepMarker struct {
	Number int
	Label  string
	Active bool
}

// Page is the data rendered by the studio page.
type Page struct {
	State   studio.StateView
	Catalog studio.Catalog
	Steps   []StepMarker
	Stage   progress.Tick
}

var stepLabels = []string{"Upload Product", "Configure Style", "Generate & Review"}

// NewModule builds the app module. Templates are parsed here so a broken
// template fails startup.
func NewModule(opts Options, logger *slog.Logger) (*module.Module, error) {
	logger = logger.With("module", "app")

	ts, err := web.NewTemplateSet(content, funcs, opts.BasePath, opts.APIPath, "templates/*.html")
	if err != nil {
		return nil, err
	}

	static, err := web.Static(content, "static", "/static")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", ts.PageHandler(logger, "app.html", opts.Title, loader(opts)))
	mux.Handle("GET /static/", static)

	return module.New(opts.BasePath, mux), nil
}

func loader(opts Options) web.LoadFunc {
	return func(r *http.Request) (any, error) {
		s, ok := sessions.FromContext(r.Context())
		if !ok {
			return nil, ErrNoSession
		}
		return NewPage(s.Controller.State(), opts.APIPath, opts.StageInterval, time.Now()), nil
	}
}

// NewPage assembles the page data for a state observed at now.
func NewPage(s workflow.State, apiPath string, interval time.Duration, now time.Time) Page {
	p := Page{
		State:   studio.NewStateView(s, apiPath),
		Catalog: studio.NewCatalog(),
		Steps:   steps(s.Step),
		Stage:   progress.At(0, interval),
	}
	if s.Pending != nil {
		p.Stage = progress.At(now.Sub(s.Pending.StartedAt), interval)
	}
	return p
}

func steps(current workflow.Step) []StepMarker {
	reached := 1
	switch current {
	case workflow.StepConfigure:
		reached = 2
	case workflow.StepGenerate, workflow.StepResults:
		reached = 3
	}

	markers := make([]StepMarker, len(stepLabels))
	for i, label := range stepLabels {
		markers[i] = StepMarker{
			Number: i + 1,
			Label:  label,
			Active: i+1 <= reached && current != workflow.StepUpload,
		}
	}
	return markers
}

var funcs = template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(s) },
	"timestamp": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006, 3:04:05 PM")
	},
	"plural": func(n int, word string) string {
		if n == 1 {
			return word
		}
		return word + "s"
	},
	"inc": func(i int) int { return i + 1 },
	"image": func(ref string) any {
		if strings.HasPrefix(ref, "data:image/") {
			return template.URL(ref)
		}
		return ref
	},
}
