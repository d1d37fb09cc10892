package web

import (
	"fmt"
	"io/fs"
	"net/http"
)

// Static returns a handler serving the files under subdir of fsys. The
// request path is stripped of urlPrefix before lookup. Directory listings
// are not served.
func Static(fsys fs.FS, subdir, urlPrefix string) (http.Handler, error) {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		return nil, fmt.Errorf("static sub-filesystem %s: %w", subdir, err)
	}
	server := http.StripPrefix(urlPrefix, http.FileServer(http.FS(sub)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "" || path[len(path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		server.ServeHTTP(w, r)
	}), nil
}
