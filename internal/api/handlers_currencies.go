package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/offer-tracker/internal/models"
)

// handleListCurrencies returns all published currency valuations
func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	vals, err := s.offerService.ListCurrencies(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, vals, len(vals))
}

// handleGetCurrency returns one currency valuation by code
func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	val, err := s.offerService.GetCurrency(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, val)
}

// handleCreateCurrency publishes a new currency valuation
func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var val models.CurrencyValuation
	if err := parseJSONBody(r, &val); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	if err := s.offerService.CreateCurrency(r.Context(), &val); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, val)
}

// handleUpdateCurrency changes a published rate. The code in the path wins
// over any code in the body.
func (s *Server) handleUpdateCurrency(w http.ResponseWriter, r *http.Request) {
	var val models.CurrencyValuation
	if err := parseJSONBody(r, &val); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	val.CurrencyCode = mux.Vars(r)["code"]

	if err := s.offerService.UpdateCurrency(r.Context(), &val); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, val)
}
