package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MapSource supplies the artifacts of the last completed run. ok is false
// until a run has finished.
type MapSource interface {
	MapHTML() (page []byte, ok bool)
	MarkersGeoJSON() (doc []byte, ok bool)
	SummaryJSON() (doc []byte, ok bool)
}

// Server exposes health, readiness, metrics and the rendered map.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /map,
// /markers.geojson and /report routes. /map is also served at /.
func NewServer(addr string, ready sharedobs.ReadinessChecker, maps MapSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mapHandler := serveArtifact(maps.MapHTML, "text/html; charset=utf-8")
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /map", mapHandler)
	mux.HandleFunc("GET /{$}", mapHandler)
	mux.HandleFunc("GET /markers.geojson", serveArtifact(maps.MarkersGeoJSON, "application/geo+json"))
	mux.HandleFunc("GET /report", serveArtifact(maps.SummaryJSON, "application/json"))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func serveArtifact(get func() ([]byte, bool), contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, ok := get()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  "no completed run",
			})
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(body) //nolint:errcheck // client went away
	}
}
