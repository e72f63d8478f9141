package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/offer-tracker/internal/models"
)

// handleSubscribe registers a new subscriber
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	sub, err := s.subscriberService.Subscribe(r.Context(), body.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

// handleVerifySubscriber confirms an email using the one-time token
func (s *Server) handleVerifySubscriber(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subscriberService.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

// handleUnsubscribe opts a subscriber out by token
func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	if err := s.subscriberService.Unsubscribe(r.Context(), body.Token); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// handleGetSubscriber returns a subscriber with preferences
func (s *Server) handleGetSubscriber(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subscriberService.Get(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

// handleUpdatePreferences replaces a subscriber's preference set
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Preferences []models.SubscriberPreference `json:"preferences"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	sub, err := s.subscriberService.UpdatePreferences(r.Context(), mux.Vars(r)["email"], body.Preferences)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sub)
}
