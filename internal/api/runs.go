package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nfarrant/metricflow/internal/runstore"
)

// maxRunsPageSize caps the number of runs a single request can ask for.
const maxRunsPageSize = 500

// handleListRuns returns recent ingestion runs, newest first.
//
// Query parameters:
//   - limit: Maximum number of runs to return (default 50, max 500)
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxRunsPageSize {
		limit = maxRunsPageSize
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs failed", "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun returns a single ingestion run by ID.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, runstore.ErrNotFound) {
			writeNotFound(w, "run not found")
			return
		}
		s.logger.Error("loading run failed", "run_id", id, "error", err)
		writeInternalError(w, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}
