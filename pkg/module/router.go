package module

import (
	"net/http"
	"strings"
)

// Router dispatches requests to mounted modules by path prefix,
// falling back to a native ServeMux for unmatched paths.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with an empty module map and native fallback mux.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler on the native fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Redirect answers GET requests for pattern with a 303 to target.
// Used to send the bare root to the default module.
func (r *Router) Redirect(pattern, target string) {
	r.native.HandleFunc("GET "+pattern, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, target, http.StatusSeeOther)
	})
}

// Mount registers a module to handle requests matching its prefix.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

// ServeHTTP dispatches to the module owning the first path segment, or to
// the native mux when no module claims it. A trailing slash is dropped
// before dispatch.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	trimTrailingSlash(req)

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.Serve(w, req)
		return
	}
	r.native.ServeHTTP(w, req)
}

// firstSegment returns "/api" for "/api/results/1".
func firstSegment(path string) string {
	rest, ok := strings.CutPrefix(path, "/")
	if !ok {
		return path
	}
	first, _, _ := strings.Cut(rest, "/")
	return "/" + first
}

func trimTrailingSlash(req *http.Request) {
	if p := req.URL.Path; len(p) > 1 {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}
}
