package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/offer-tracker/internal/models"
)

// handleListProducts returns all card products with their issuers
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.productStore.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, products, len(products))
}

// handleGetProduct returns a single card product by slug
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.productStore.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// handleCreateProduct creates a new card product
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.CardProduct
	if err := parseJSONBody(r, &product); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	if product.Name == "" || product.Slug == "" || product.IssuerID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "name, slug and issuerId are required", nil)
		return
	}

	if err := s.productStore.Create(r.Context(), &product); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// handleListProductOffers returns a product's offers with valuations
func (s *Server) handleListProductOffers(w http.ResponseWriter, r *http.Request) {
	product, err := s.productStore.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	offers, err := s.offerService.ListByProduct(r.Context(), product.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondList(w, http.StatusOK, offers, len(offers))
}
