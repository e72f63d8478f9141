package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/service"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/types"
)

type mockOfferService struct {
	OfferServiceInterface
	offers []*service.ValuedOffer
	getErr error
}

func (m *mockOfferService) List(ctx context.Context, filters *storage.OfferFilters) ([]*service.ValuedOffer, error) {
	return m.offers, nil
}

func (m *mockOfferService) Get(ctx context.Context, id string) (*service.ValuedOffer, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, o := range m.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, &types.ServiceError{Code: "OFFER_NOT_FOUND", Message: "offer not found"}
}

type mockSnapshotService struct {
	SnapshotServiceInterface
	changes []*models.OfferSnapshot
}

func (m *mockSnapshotService) GetWeeklyChanges(ctx context.Context) ([]*models.OfferSnapshot, error) {
	return m.changes, nil
}

type mockSubscriberService struct {
	SubscriberServiceInterface
}

func (m *mockSubscriberService) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	if email == "" {
		return nil, &types.ServiceError{Code: "INVALID_EMAIL", Message: "invalid email address"}
	}
	return &models.Subscriber{ID: "sub-1", Email: email}, nil
}

type mockIssuerStore struct {
	IssuerStore
	issuers []*models.Issuer
}

func (m *mockIssuerStore) List(ctx context.Context) ([]*models.Issuer, error) {
	return m.issuers, nil
}

type mockProductStore struct {
	ProductStore
}

type mockHealthStore struct {
	pingErr error
}

func (m *mockHealthStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockHealthStore) Stats(ctx context.Context) (int64, int64, error) {
	return 3, 6, nil
}

func newTestServer(t *testing.T, offers *mockOfferService, health *mockHealthStore) *Server {
	t.Helper()

	if offers == nil {
		offers = &mockOfferService{}
	}
	if health == nil {
		health = &mockHealthStore{}
	}

	return NewServer(
		&ServerConfig{
			Host:           "127.0.0.1",
			Port:           "0",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			IdleTimeout:    30 * time.Second,
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		offers,
		&mockSnapshotService{},
		&mockSubscriberService{},
		&mockIssuerStore{},
		&mockProductStore{},
		health,
	)
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.RemoteAddr = "192.0.2.1:50000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestListOffersEnvelope(t *testing.T) {
	offers := &mockOfferService{offers: []*service.ValuedOffer{
		{Offer: &models.Offer{ID: "offer-a"}, NetValue: 1205},
		{Offer: &models.Offer{ID: "offer-b"}, NetValue: 1021},
	}}
	srv := newTestServer(t, offers, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/offers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool              `json:"success"`
		Count   int               `json:"count"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Data, 2)
}

func TestListOffersRejectsBadMinBonus(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/offers?minBonus=lots", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_FILTER", resp.Error.Code)
}

func TestGetOfferNotFound(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/offers/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "OFFER_NOT_FOUND", resp.Error.Code)
}

func TestGetOfferMasksSystemErrors(t *testing.T) {
	offers := &mockOfferService{getErr: errors.New("pool exhausted")}
	srv := newTestServer(t, offers, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/offers/offer-a", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Error.Message, "pool exhausted")
}

func TestSubscribeRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/subscribers", []byte(`{"email": 5}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestSubscribeCreated(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/subscribers", []byte(`{"email":"reader@example.com"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    *models.Subscriber `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "reader@example.com", resp.Data.Email)
}

func TestHealthHealthy(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Data["status"])

	db := resp.Data["database"].(map[string]interface{})
	assert.Equal(t, true, db["connected"])
	assert.Equal(t, float64(3), db["offers"])
}

func TestHealthDegraded(t *testing.T) {
	srv := newTestServer(t, nil, &mockHealthStore{pingErr: errors.New("connection refused")})

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Data["status"])

	db := resp.Data["database"].(map[string]interface{})
	assert.Equal(t, false, db["connected"])
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := doRequest(t, srv, http.MethodOptions, "/api/offers", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitExceeded(t *testing.T) {
	srv := NewServer(
		&ServerConfig{
			Host:           "127.0.0.1",
			Port:           "0",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			IdleTimeout:    30 * time.Second,
			RateLimitRPS:   1,
			RateLimitBurst: 1,
		},
		&mockOfferService{},
		&mockSnapshotService{},
		&mockSubscriberService{},
		&mockIssuerStore{},
		&mockProductStore{},
		&mockHealthStore{},
	)

	first := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusTooManyRequests, second.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.Error.Code)
}
