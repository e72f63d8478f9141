package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/offer-tracker/internal/models"
)

// handleListIssuers returns all issuers with product counts
func (s *Server) handleListIssuers(w http.ResponseWriter, r *http.Request) {
	issuers, err := s.issuerStore.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, issuers, len(issuers))
}

// handleGetIssuer returns a single issuer by slug
func (s *Server) handleGetIssuer(w http.ResponseWriter, r *http.Request) {
	issuer, err := s.issuerStore.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, issuer)
}

// handleCreateIssuer creates a new issuer
func (s *Server) handleCreateIssuer(w http.ResponseWriter, r *http.Request) {
	var issuer models.Issuer
	if err := parseJSONBody(r, &issuer); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	if issuer.Name == "" || issuer.Slug == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "name and slug are required", nil)
		return
	}

	if err := s.issuerStore.Create(r.Context(), &issuer); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, issuer)
}

// handleUpdateIssuer updates an issuer addressed by slug
func (s *Server) handleUpdateIssuer(w http.ResponseWriter, r *http.Request) {
	existing, err := s.issuerStore.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var issuer models.Issuer
	if err := parseJSONBody(r, &issuer); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	issuer.ID = existing.ID

	if err := s.issuerStore.Update(r.Context(), &issuer); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, issuer)
}

// handleDeleteIssuer deletes an issuer addressed by slug. Blocked while the
// issuer still owns card products.
func (s *Server) handleDeleteIssuer(w http.ResponseWriter, r *http.Request) {
	existing, err := s.issuerStore.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := s.issuerStore.Delete(r.Context(), existing.ID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": existing.ID})
}

// handleListIssuerProducts returns an issuer's card products
func (s *Server) handleListIssuerProducts(w http.ResponseWriter, r *http.Request) {
	issuer, err := s.issuerStore.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	products, err := s.productStore.ListByIssuer(r.Context(), issuer.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, products, len(products))
}
