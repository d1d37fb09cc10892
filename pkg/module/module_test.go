package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/roomset/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"empty", ""},
		{"no leading slash", "api"},
		{"nested path", "/api/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("expected panic for invalid prefix")
				}
			}()
			module.New(tt.prefix, http.NewServeMux())
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	mux := http.NewServeMux()

	var receivedPath string
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	router := module.NewRouter()
	router.Mount(module.New("/app", mux))
	router.Redirect("/{$}", "/app")
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantPath string
		location string
	}{
		{"module root", "/app", http.StatusOK, "/", ""},
		{"module trailing slash", "/app/", http.StatusOK, "/", ""},
		{"native route", "/healthz", http.StatusNoContent, "", ""},
		{"root redirect", "/", http.StatusSeeOther, "", "/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receivedPath = ""
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if receivedPath != tt.wantPath {
				t.Errorf("inner path: got %q, want %q", receivedPath, tt.wantPath)
			}
			if loc := rec.Header().Get("Location"); loc != tt.location {
				t.Errorf("location: got %q, want %q", loc, tt.location)
			}
		})
	}
}

func TestRegisterGroups(t *testing.T) {
	mux := http.NewServeMux()

	called := map[string]bool{}
	handler := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			called[name] = true
		}
	}

	module.Register(mux, module.Group{
		Prefix: "/results",
		Routes: []module.Route{
			{Method: "GET", Pattern: "", Handler: handler("list")},
		},
		Children: []module.Group{
			{
				Prefix: "/{id}",
				Routes: []module.Route{
					{Method: "DELETE", Pattern: "", Handler: handler("delete")},
				},
			},
		},
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/results", nil))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("DELETE", "/results/abc", nil))

	for _, name := range []string{"list", "delete"} {
		if !called[name] {
			t.Errorf("route %s not registered", name)
		}
	}
}

func TestModuleMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	m := module.New("/api", mux)
	m.Use(mw("first"))
	m.Use(mw("second"))

	m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", "/api", nil))

	want := []string{"first", "second", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d]: got %s, want %s", i, order[i], want[i])
		}
	}
}
