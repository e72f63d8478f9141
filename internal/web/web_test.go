package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offer-tracker/internal/api"
	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/service"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/types"
)

type stubOfferService struct {
	api.OfferServiceInterface
	offers []*service.ValuedOffer
	err    error
}

func (s *stubOfferService) List(ctx context.Context, filters *storage.OfferFilters) ([]*service.ValuedOffer, error) {
	return s.offers, s.err
}

type stubSnapshotService struct {
	api.SnapshotServiceInterface
	changes []*models.OfferSnapshot
}

func (s *stubSnapshotService) GetWeeklyChanges(ctx context.Context) ([]*models.OfferSnapshot, error) {
	return s.changes, nil
}

type stubIssuerStore struct {
	api.IssuerStore
	issuers []*models.Issuer
}

func (s *stubIssuerStore) List(ctx context.Context) ([]*models.Issuer, error) {
	return s.issuers, nil
}

type stubHealthStore struct{}

func (s *stubHealthStore) Ping(ctx context.Context) error { return nil }
func (s *stubHealthStore) Stats(ctx context.Context) (int64, int64, error) {
	return 0, 0, nil
}

func newTestHandler(t *testing.T, offers *stubOfferService) *mux.Router {
	t.Helper()

	h, err := NewHandler(offers, &stubSnapshotService{}, &stubIssuerStore{
		issuers: []*models.Issuer{{Name: "Chase", Slug: "chase", ProductCount: 2}},
	}, &stubHealthStore{})
	require.NoError(t, err)

	router := mux.NewRouter()
	h.Register(router)
	return router
}

func TestHomeRendersOffers(t *testing.T) {
	offers := &stubOfferService{offers: []*service.ValuedOffer{
		{
			Offer: &models.Offer{
				ID:          "offer-a",
				BonusPoints: 80000,
				Product: &models.CardProduct{
					Name:   "Sample Card",
					Issuer: &models.Issuer{Name: "Citi"},
				},
			},
			BonusValue: 1120,
			NetValue:   1021,
		},
	}}

	router := newTestHandler(t, offers)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sample Card")
	assert.Contains(t, body, "Citi")
	assert.Contains(t, body, "$1021")
}

func TestHomeShowsUnavailableWhenDatabaseDown(t *testing.T) {
	offers := &stubOfferService{err: errors.New("connection refused")}

	router := newTestHandler(t, offers)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Temporarily unavailable")
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHomeUserErrorKeepsOwnStatus(t *testing.T) {
	offers := &stubOfferService{err: &types.ServiceError{
		Code:    "INVALID_FILTER",
		Message: "minBonus must be a number",
	}}

	router := newTestHandler(t, offers)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "minBonus must be a number")
}

func TestIssuersPage(t *testing.T) {
	router := newTestHandler(t, &stubOfferService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/issuers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chase")
}
