package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/offer-tracker/internal/storage"
)

// parsePageFilters maps query parameters onto the offer filter set. The pages
// expose a subset of the API filters.
func parsePageFilters(r *http.Request) (*storage.OfferFilters, error) {
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
			return nil, fmt.Errorf("minBonus must be an integer")
		}
		filters.MinBonus = &minBonus
	}

	return filters, nil
}
