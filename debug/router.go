// Package debug serves a read-only HTTP view of a container.
package debug

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/centraunit/digo"
	"github.com/centraunit/digo/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Router returns the introspection handler for c:
//
//	GET /healthz         200 while c is open, 503 after Shutdown
//	GET /bindings        every registered token
//	GET /bindings/*      one token by its display name, slashes included
//	GET /arena           arena capacity, usage and objects
//	GET /metrics         the metrics of g, when g is not nil
func Router(c *digo.Container, g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if c.Closed() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "closed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "container": c.Name(), "id": c.ID()})
	})
	r.Get("/bindings", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, c.Bindings())
	})
	r.Get("/bindings/*", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "*")
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
		for _, info := range c.Bindings() {
			if info.Type == name {
				writeJSON(w, http.StatusOK, info)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": (&digo.BindingNotFoundError{Type: name}).Error()})
	})
	r.Get("/arena", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, c.ArenaUsage())
	})
	if g != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(g))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
