package api

import (
	"net/http"
	"time"
)

// handleGetChanges returns the change feed. By default it covers the weekly
// window; an optional RFC 3339 "since" parameter overrides the cutoff.
func (s *Server) handleGetChanges(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_FILTER", "since must be an RFC 3339 timestamp", nil)
			return
		}

		changes, err := s.snapshotService.GetChangesSince(r.Context(), since)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		respondList(w, http.StatusOK, changes, len(changes))
		return
	}

	changes, err := s.snapshotService.GetWeeklyChanges(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, changes, len(changes))
}
