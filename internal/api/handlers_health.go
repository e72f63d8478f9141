package api

import (
	"net/http"
	"time"
)

// handleHealth reports service and database health. A failing database check
// returns 503 with connected false rather than an error envelope, so probes
// always get a parseable body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"service":   "offer-tracker",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.healthStore.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = map[string]interface{}{"connected": false}
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	db := map[string]interface{}{"connected": true}
	if offers, issuers, err := s.healthStore.Stats(r.Context()); err == nil {
		db["offers"] = offers
		db["issuers"] = issuers
	}
	status["database"] = db

	respondJSON(w, http.StatusOK, status)
}
