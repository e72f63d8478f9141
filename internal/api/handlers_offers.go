package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/types"
)

// parseOfferFilters builds the filter set from query parameters. Unknown
// parameters are ignored; malformed values are rejected.
func parseOfferFilters(r *http.Request) (*storage.OfferFilters, error) {
	q := r.URL.Query()
	filters := &storage.OfferFilters{}

	if v := q.Get("issuer"); v != "" {
		filters.IssuerSlug = &v
	}

	if v := q.Get("currency"); v != "" {
		filters.CurrencyCode = &v
	}

	if v := q.Get("minBonus"); v != "" {
		minBonus, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &types.ServiceError{
				Code:    "INVALID_FILTER",
				Message: "minBonus must be an integer",
			}
		}
		filters.MinBonus = &minBonus
	}

	if v := q.Get("maxSpend"); v != "" {
		maxSpend, err := decimal.NewFromString(v)
		if err != nil {
			return nil, &types.ServiceError{
				Code:    "INVALID_FILTER",
				Message: "maxSpend must be a number",
			}
		}
		filters.MaxSpend = &maxSpend
	}

	if v := q.Get("status"); v != "" {
		status := types.OfferStatus(v)
		filters.Status = &status
	}

	if v := q.Get("firstYearWaived"); v != "" {
		waived, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &types.ServiceError{
				Code:    "INVALID_FILTER",
				Message: "firstYearWaived must be a boolean",
			}
		}
		filters.FirstYearWaived = &waived
	}

	return filters, nil
}

// handleListOffers returns offers matching the query filters, ordered by net
// value descending
func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	filters, err := parseOfferFilters(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	offers, err := s.offerService.List(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, offers, len(offers))
}

// handleGetOffer returns a single offer with valuation and latest snapshot
func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	offer, err := s.offerService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, offer)
}

// handleCreateOffer creates a new offer
func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var offer models.Offer
	if err := parseJSONBody(r, &offer); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	if err := s.offerService.Create(r.Context(), &offer); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, offer)
}

// handleUpdateOffer updates an existing offer
func (s *Server) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	var offer models.Offer
	if err := parseJSONBody(r, &offer); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	offer.ID = mux.Vars(r)["id"]

	if err := s.offerService.Update(r.Context(), &offer); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, offer)
}

// handleUpdateOfferStatus transitions an offer's status
func (s *Server) handleUpdateOfferStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status types.OfferStatus `json:"status"`
	}
	if err := parseJSONBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.offerService.UpdateStatus(r.Context(), id, body.Status); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": body.Status,
	})
}

// handleDeleteOffer deletes an offer
func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.offerService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// handleOfferHistory returns an offer's snapshot history, newest first
func (s *Server) handleOfferHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_FILTER", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}

	snaps, err := s.snapshotService.History(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, snaps, len(snaps))
}
