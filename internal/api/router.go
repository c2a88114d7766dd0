package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
		})
	})

	return r
}

// handleHealth returns the server health status along with the state of
// downstream dependencies. Degraded dependencies are reported but do not
// change the HTTP status: the API itself is still serving.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if s.db != nil {
		checks["database"] = healthStatus(s.db.HealthCheck(r.Context()))
	}
	if s.writer != nil {
		checks["victoriametrics"] = healthStatus(s.writer.HealthCheck(r.Context()))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"checks":  checks,
	})
}

// healthStatus collapses a health check result into a report string.
func healthStatus(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
