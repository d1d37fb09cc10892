// Package studio exposes the roomset workflow over HTTP.
//
// Command endpoints never report a rejected command to the client. Whether
// the controller accepted the command or not, a script receives the current
// state as JSON and a form submission is redirected back to the app page.
package studio

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/roomset/internal/sessions"
	"github.com/JaimeStill/roomset/internal/uploads"
	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/handlers"
	"github.com/JaimeStill/roomset/pkg/module"
	"github.com/JaimeStill/roomset/pkg/pagination"
	"github.com/JaimeStill/roomset/pkg/storage"
)

// ErrNoSession reports a request that reached a handler without a session.
var ErrNoSession = errors.New("no session")

// Options configures a Handler.
type Options struct {
	// APIPath is the public mount path of the handler, used in links.
	APIPath string
	// AppPath is where form submissions are redirected.
	AppPath       string
	MaxMemory     int64
	Pagination    pagination.Config
	StageInterval time.Duration
}

// Handler provides the studio HTTP endpoints.
type Handler struct {
	uploads *uploads.Processor
	media   storage.System
	logger  *slog.Logger
	opts    Options

	done      chan struct{}
	closeOnce sync.Once
}

// NewHandler creates a Handler. media may be nil when product images are
// embedded inline.
func NewHandler(proc *uploads.Processor, media storage.System, logger *slog.Logger, opts Options) *Handler {
	return &Handler{
		uploads: proc,
		media:   media,
		logger:  logger.With("handler", "studio"),
		opts:    opts,
		done:    make(chan struct{}),
	}
}

// Close ends every open event stream. Streams opened afterwards end
// immediately.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Routes returns the route group definition for studio endpoints.
func (h *Handler) Routes() module.Group {
	return module.Group{
		Prefix: "",
		Routes: []module.Route{
			{Method: "GET", Pattern: "/state", Handler: h.State},
			{Method: "GET", Pattern: "/catalog", Handler: h.Catalog},
			{Method: "GET", Pattern: "/events", Handler: h.Events},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "POST", Pattern: "/upload/demo", Handler: h.Demo},
			{Method: "POST", Pattern: "/preset", Handler: h.Preset},
			{Method: "POST", Pattern: "/prompt", Handler: h.Prompt},
			{Method: "POST", Pattern: "/generate", Handler: h.Generate},
			{Method: "POST", Pattern: "/reset", Handler: h.Reset},
			{Method: "GET", Pattern: "/media/{key...}", Handler: h.Media},
		},
		Children: []module.Group{
			{
				Prefix: "/results",
				Routes: []module.Route{
					{Method: "GET", Pattern: "", Handler: h.Results},
					{Method: "GET", Pattern: "/{id}/view", Handler: h.View},
					{Method: "GET", Pattern: "/{id}/download", Handler: h.Download},
					{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
					{Method: "POST", Pattern: "/{id}/delete", Handler: h.Delete},
				},
			},
		},
	}
}

// State returns the session's current state.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, NewStateView(s.Controller.State(), h.opts.APIPath))
}

// Catalog returns the presets, example prompts, and progress stages.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, NewCatalog())
}

// Upload accepts a multipart form with one or more file parts and starts
// processing the first image among them.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	err := r.ParseMultipartForm(h.opts.MaxMemory)
	if err == nil {
		defer r.MultipartForm.RemoveAll()

		var f *uploads.File
		f, err = uploads.Select(r.MultipartForm.File[uploads.FormField])
		if err == nil {
			err = h.uploads.Accept(s.Controller, s.ID.String(), f)
		}
	}

	h.respond(w, r, s, err)
}

// Demo completes the upload step with the built-in demo product.
func (h *Handler) Demo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, r, s, h.uploads.Demo(s.Controller))
}

type presetInput struct {
	Preset string `json:"preset"`
}

// Preset selects a style preset. An empty preset clears the selection.
func (h *Handler) Preset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var in presetInput
	err := bind(r, &in, func(form url.Values) {
		in.Preset = form.Get("preset")
	})
	if err == nil {
		err = s.Controller.SelectPreset(in.Preset)
	}

	h.respond(w, r, s, err)
}

type promptInput struct {
	Prompt  *string `json:"prompt"`
	Example *int    `json:"example"`
}

// Prompt sets the free-text style prompt, or fills it from an example when
// an example index is given.
func (h *Handler) Prompt(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var in promptInput
	err := bind(r, &in, func(form url.Values) {
		if form.Has("example") {
			if i, err := strconv.Atoi(form.Get("example")); err == nil {
				in.Example = &i
			} else {
				invalid := -1
				in.Example = &invalid
			}
			return
		}
		if form.Has("prompt") {
			p := form.Get("prompt")
			in.Prompt = &p
		}
	})

	if err == nil {
		switch {
		case in.Example != nil:
			err = s.Controller.UseExamplePrompt(*in.Example)
		case in.Prompt != nil:
			err = s.Controller.SetPrompt(*in.Prompt)
		default:
			err = workflow.ErrInvalidSelection
		}
	}

	h.respond(w, r, s, err)
}

// Generate triggers a simulated generation run.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, r, s, s.Controller.Generate())
}

// Reset returns the session to the upload step, keeping its results.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, r, s, s.Controller.Reset(r.Context()))
}

// Results returns a page of results, newest first.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.opts.Pagination)
	state := s.Controller.State()

	views := make([]ResultView, len(state.Results))
	for i, res := range state.Results {
		views[i] = NewResultView(res, h.opts.APIPath)
	}

	handlers.RespondJSON(w, http.StatusOK, pagination.Paginate(views, page))
}

// View redirects to the full-size result image.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, res.URL, http.StatusFound)
}

// Download redirects to the result image. The saved filename comes from
// the download attribute of the gallery link, which carries the result's
// download_name.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, res.URL, http.StatusFound)
}

// Delete removes a result.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		err = workflow.ErrResultNotFound
	} else {
		err = s.Controller.Delete(id)
	}

	h.respond(w, r, s, err)
}

// Media streams a stored product image belonging to the session.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	key := r.PathValue("key")
	owned := strings.HasPrefix(key, "products/"+s.ID.String()+"/")
	if h.media == nil || !owned {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	blob, err := h.media.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("media stream interrupted", "key", key, "error", err)
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*sessions.Session, bool) {
	s, ok := sessions.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, ErrNoSession)
		return nil, false
	}
	return s, true
}

func (h *Handler) result(w http.ResponseWriter, r *http.Request) (workflow.Result, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return workflow.Result{}, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, workflow.ErrResultNotFound)
		return workflow.Result{}, false
	}

	res, err := s.Controller.Result(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return workflow.Result{}, false
	}
	return res, true
}

// respond answers a command. Rejections are logged and otherwise answered
// exactly like accepted commands.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, s *sessions.Session, err error) {
	if err != nil {
		h.logger.Debug("command ignored", "session", s.ID, "path", r.URL.Path, "error", err)
	}

	if handlers.WantsHTML(r) {
		handlers.SeeOther(w, r, h.opts.AppPath)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, NewStateView(s.Controller.State(), h.opts.APIPath))
}

// bind decodes a JSON body into v, or parses a form and hands its values to
// fromForm.
func bind(r *http.Request, v any, fromForm func(url.Values)) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return workflow.ErrInvalidSelection
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return workflow.ErrInvalidSelection
	}
	fromForm(r.PostForm)
	return nil
}
