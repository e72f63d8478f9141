package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/types"
	"github.com/offer-tracker/internal/valuation"
)

type mockOfferRepo struct {
	OfferRepository
	offers []*models.Offer
	err    error
}

func (m *mockOfferRepo) Find(ctx context.Context, filters *storage.OfferFilters) ([]*models.Offer, error) {
	return m.offers, m.err
}

func (m *mockOfferRepo) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	for _, o := range m.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, &types.ServiceError{Code: "OFFER_NOT_FOUND", Message: "offer not found"}
}

type mockCurrencyRepo struct {
	CurrencyRepository
	rates valuation.RateTable
	calls int
}

func (m *mockCurrencyRepo) BulkValuations(ctx context.Context) (valuation.RateTable, error) {
	m.calls++
	return m.rates, nil
}

func (m *mockCurrencyRepo) Create(ctx context.Context, val *models.CurrencyValuation) error {
	return nil
}

func (m *mockCurrencyRepo) Update(ctx context.Context, val *models.CurrencyValuation) error {
	return nil
}

type mockSnapshotReader struct {
	latest *models.OfferSnapshot
}

func (m *mockSnapshotReader) GetLatest(ctx context.Context, offerID string) (*models.OfferSnapshot, error) {
	return m.latest, nil
}

type mockRateCache struct {
	rates       valuation.RateTable
	hit         bool
	sets        int
	invalidates int
}

func (m *mockRateCache) Get(ctx context.Context) (valuation.RateTable, bool, error) {
	return m.rates, m.hit, nil
}

func (m *mockRateCache) Set(ctx context.Context, rates valuation.RateTable) error {
	m.sets++
	m.rates = rates
	m.hit = true
	return nil
}

func (m *mockRateCache) Invalidate(ctx context.Context) error {
	m.invalidates++
	m.hit = false
	return nil
}

func testOffer(id, currency string, points int64, fee float64, waived bool, verified time.Time) *models.Offer {
	return &models.Offer{
		ID:              id,
		BonusPoints:     points,
		AnnualFee:       decimal.NewFromFloat(fee),
		FirstYearWaived: waived,
		LastVerifiedAt:  verified,
		Status:          types.StatusActive,
		Product:         &models.CardProduct{CurrencyCode: currency},
	}
}

func TestListOrdersByNetValueDescending(t *testing.T) {
	now := time.Now()
	offerRepo := &mockOfferRepo{offers: []*models.Offer{
		testOffer("offer-a", "AA", 80000, 99, false, now),  // 1120 - 99 = 1021
		testOffer("offer-b", "MR", 90000, 325, false, now), // 1530 - 325 = 1205
		testOffer("offer-c", "UA", 60000, 95, true, now),   // 720
	}}
	currencyRepo := &mockCurrencyRepo{rates: valuation.RateTable{"AA": 1.4, "MR": 1.7, "UA": 1.2}}

	svc := NewOfferService(offerRepo, currencyRepo, &mockSnapshotReader{}, nil)

	valued, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, valued, 3)

	assert.Equal(t, "offer-b", valued[0].ID)
	assert.Equal(t, int64(1205), valued[0].NetValue)
	assert.Equal(t, "offer-a", valued[1].ID)
	assert.Equal(t, int64(1021), valued[1].NetValue)
	assert.Equal(t, "offer-c", valued[2].ID)
	assert.Equal(t, int64(720), valued[2].NetValue)
}

func TestListBreaksTiesOnVerificationTimeThenID(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	offerRepo := &mockOfferRepo{offers: []*models.Offer{
		testOffer("offer-b", "AA", 50000, 0, false, older),
		testOffer("offer-a", "AA", 50000, 0, false, older),
		testOffer("offer-c", "AA", 50000, 0, false, newer),
	}}
	currencyRepo := &mockCurrencyRepo{rates: valuation.RateTable{"AA": 1.4}}

	svc := NewOfferService(offerRepo, currencyRepo, &mockSnapshotReader{}, nil)

	valued, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, valued, 3)

	assert.Equal(t, "offer-c", valued[0].ID)
	assert.Equal(t, "offer-a", valued[1].ID)
	assert.Equal(t, "offer-b", valued[2].ID)
}

func TestListRejectsNegativeMinBonus(t *testing.T) {
	svc := NewOfferService(&mockOfferRepo{}, &mockCurrencyRepo{}, &mockSnapshotReader{}, nil)

	minBonus := int64(-1)
	_, err := svc.List(context.Background(), &storage.OfferFilters{MinBonus: &minBonus})

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_FILTER", svcErr.Code)
}

func TestListRejectsInvalidStatus(t *testing.T) {
	svc := NewOfferService(&mockOfferRepo{}, &mockCurrencyRepo{}, &mockSnapshotReader{}, nil)

	status := types.OfferStatus("BOGUS")
	_, err := svc.List(context.Background(), &storage.OfferFilters{Status: &status})

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_STATUS", svcErr.Code)
}

func TestGetAttachesLatestSnapshot(t *testing.T) {
	offerRepo := &mockOfferRepo{offers: []*models.Offer{
		testOffer("offer-a", "AA", 80000, 99, false, time.Now()),
	}}
	latest := &models.OfferSnapshot{ID: "snap-1", OfferID: "offer-a"}

	svc := NewOfferService(offerRepo, &mockCurrencyRepo{rates: valuation.RateTable{"AA": 1.4}}, &mockSnapshotReader{latest: latest}, nil)

	valued, err := svc.Get(context.Background(), "offer-a")
	require.NoError(t, err)
	require.NotNil(t, valued.LatestSnapshot)
	assert.Equal(t, "snap-1", valued.LatestSnapshot.ID)
	assert.Equal(t, int64(1021), valued.NetValue)
}

func TestRatesCacheAside(t *testing.T) {
	currencyRepo := &mockCurrencyRepo{rates: valuation.RateTable{"MR": 1.7}}
	cache := &mockRateCache{}

	svc := NewOfferService(&mockOfferRepo{}, currencyRepo, &mockSnapshotReader{}, cache)

	// Miss populates the cache from the database
	rates, err := svc.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.7, rates["MR"])
	assert.Equal(t, 1, currencyRepo.calls)
	assert.Equal(t, 1, cache.sets)

	// Hit skips the database
	_, err = svc.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, currencyRepo.calls)
}

func TestUpdateCurrencyInvalidatesCache(t *testing.T) {
	currencyRepo := &mockCurrencyRepo{rates: valuation.RateTable{}}
	cache := &mockRateCache{hit: true, rates: valuation.RateTable{"MR": 1.7}}

	svc := NewOfferService(&mockOfferRepo{}, currencyRepo, &mockSnapshotReader{}, cache)

	err := svc.UpdateCurrency(context.Background(), &models.CurrencyValuation{
		CurrencyCode:  "MR",
		CentsPerPoint: decimal.NewFromFloat(1.8),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidates)
}

func TestCreateCurrencyRejectsEmptyCode(t *testing.T) {
	svc := NewOfferService(&mockOfferRepo{}, &mockCurrencyRepo{}, &mockSnapshotReader{}, nil)

	err := svc.CreateCurrency(context.Background(), &models.CurrencyValuation{})

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_CURRENCY_CODE", svcErr.Code)
}
