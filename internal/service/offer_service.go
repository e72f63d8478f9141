package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/types"
	"github.com/offer-tracker/internal/valuation"
)

// OfferRepository interface for offer data operations
type OfferRepository interface {
	Find(ctx context.Context, filters *storage.OfferFilters) ([]*models.Offer, error)
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	ListByProduct(ctx context.Context, productID string) ([]*models.Offer, error)
	Create(ctx context.Context, offer *models.Offer) error
	Update(ctx context.Context, offer *models.Offer) error
	UpdateStatus(ctx context.Context, id string, status types.OfferStatus) error
	Delete(ctx context.Context, id string) error
}

// CurrencyRepository interface for currency valuation operations
type CurrencyRepository interface {
	List(ctx context.Context) ([]*models.CurrencyValuation, error)
	GetByCode(ctx context.Context, code string) (*models.CurrencyValuation, error)
	BulkValuations(ctx context.Context) (valuation.RateTable, error)
	Create(ctx context.Context, val *models.CurrencyValuation) error
	Update(ctx context.Context, val *models.CurrencyValuation) error
}

// RateCache interface for the cached bulk valuation table
type RateCache interface {
	Get(ctx context.Context) (valuation.RateTable, bool, error)
	Set(ctx context.Context, rates valuation.RateTable) error
	Invalidate(ctx context.Context) error
}

// SnapshotReader is the read-side snapshot access the offer service needs
type SnapshotReader interface {
	GetLatest(ctx context.Context, offerID string) (*models.OfferSnapshot, error)
}

// ValuedOffer is an offer annotated with its estimated value. The rate used
// is echoed so callers can see which valuation produced the numbers.
type ValuedOffer struct {
	*models.Offer
	CentsPerPoint float64 `json:"centsPerPoint"`
	BonusValue    int64   `json:"bonusValue"`
	NetValue      int64   `json:"netValue"`
}

// OfferService handles offer listing, valuation and lifecycle
type OfferService struct {
	offerRepo    OfferRepository
	currencyRepo CurrencyRepository
	snapshotRepo SnapshotReader
	rateCache    RateCache
	logger       *logging.Logger
}

// NewOfferService creates a new offer service. rateCache may be nil, in which
// case every listing reads rates from the database.
func NewOfferService(
	offerRepo OfferRepository,
	currencyRepo CurrencyRepository,
	snapshotRepo SnapshotReader,
	rateCache RateCache,
) *OfferService {
	return &OfferService{
		offerRepo:    offerRepo,
		currencyRepo: currencyRepo,
		snapshotRepo: snapshotRepo,
		rateCache:    rateCache,
		logger:       logging.GetGlobalLogger().WithField("service", "offer"),
	}
}

// List returns offers matching the filters, each annotated with its valuation,
// ordered by net value descending. Ties break on last verified time, then ID,
// so pagination by the caller stays stable.
func (s *OfferService) List(ctx context.Context, filters *storage.OfferFilters) ([]*ValuedOffer, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}

	offers, err := s.offerRepo.Find(ctx, filters)
	if err != nil {
		return nil, err
	}

	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, err
	}

	valued := make([]*ValuedOffer, len(offers))
	for i, offer := range offers {
		valued[i] = scoreOffer(offer, rates)
	}

	sort.SliceStable(valued, func(i, j int) bool {
		if valued[i].NetValue != valued[j].NetValue {
			return valued[i].NetValue > valued[j].NetValue
		}
		if !valued[i].LastVerifiedAt.Equal(valued[j].LastVerifiedAt) {
			return valued[i].LastVerifiedAt.After(valued[j].LastVerifiedAt)
		}
		return valued[i].ID < valued[j].ID
	})

	return valued, nil
}

// Get returns a single offer with its valuation and latest snapshot attached
func (s *OfferService) Get(ctx context.Context, id string) (*ValuedOffer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	latest, err := s.snapshotRepo.GetLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	offer.LatestSnapshot = latest

	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, err
	}

	return scoreOffer(offer, rates), nil
}

// ListByProduct returns all offers for a product with valuations attached
func (s *OfferService) ListByProduct(ctx context.Context, productID string) ([]*ValuedOffer, error) {
	offers, err := s.offerRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, err
	}

	valued := make([]*ValuedOffer, len(offers))
	for i, offer := range offers {
		valued[i] = scoreOffer(offer, rates)
	}

	return valued, nil
}

// Rates returns the bulk cents-per-point lookup table, cache-aside. Cache
// failures fall through to the database so valuations keep working when Redis
// is down.
func (s *OfferService) Rates(ctx context.Context) (valuation.RateTable, error) {
	if s.rateCache != nil {
		rates, ok, err := s.rateCache.Get(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("rate cache read failed, falling back to database")
		} else if ok {
			return rates, nil
		}
	}

	rates, err := s.currencyRepo.BulkValuations(ctx)
	if err != nil {
		return nil, err
	}

	if s.rateCache != nil {
		if err := s.rateCache.Set(ctx, rates); err != nil {
			s.logger.WithError(err).Warn("rate cache write failed")
		}
	}

	return rates, nil
}

// Create validates and persists a new offer
func (s *OfferService) Create(ctx context.Context, offer *models.Offer) error {
	if err := validateOffer(offer); err != nil {
		return err
	}
	if offer.Status == "" {
		offer.Status = types.StatusActive
	}
	return s.offerRepo.Create(ctx, offer)
}

// Update validates and persists changes to an offer
func (s *OfferService) Update(ctx context.Context, offer *models.Offer) error {
	if err := validateOffer(offer); err != nil {
		return err
	}
	return s.offerRepo.Update(ctx, offer)
}

// UpdateStatus transitions an offer's lifecycle status
func (s *OfferService) UpdateStatus(ctx context.Context, id string, status types.OfferStatus) error {
	return s.offerRepo.UpdateStatus(ctx, id, status)
}

// Delete removes an offer
func (s *OfferService) Delete(ctx context.Context, id string) error {
	return s.offerRepo.Delete(ctx, id)
}

// ListCurrencies returns all published currency valuations
func (s *OfferService) ListCurrencies(ctx context.Context) ([]*models.CurrencyValuation, error) {
	return s.currencyRepo.List(ctx)
}

// GetCurrency returns a single currency valuation by code
func (s *OfferService) GetCurrency(ctx context.Context, code string) (*models.CurrencyValuation, error) {
	return s.currencyRepo.GetByCode(ctx, code)
}

// CreateCurrency publishes a new currency valuation and drops the cached rate table
func (s *OfferService) CreateCurrency(ctx context.Context, val *models.CurrencyValuation) error {
	if err := validateCurrency(val); err != nil {
		return err
	}
	if err := s.currencyRepo.Create(ctx, val); err != nil {
		return err
	}
	s.invalidateRates(ctx)
	return nil
}

// UpdateCurrency changes a published rate and drops the cached rate table
func (s *OfferService) UpdateCurrency(ctx context.Context, val *models.CurrencyValuation) error {
	if err := validateCurrency(val); err != nil {
		return err
	}
	if err := s.currencyRepo.Update(ctx, val); err != nil {
		return err
	}
	s.invalidateRates(ctx)
	return nil
}

func (s *OfferService) invalidateRates(ctx context.Context) {
	if s.rateCache == nil {
		return
	}
	if err := s.rateCache.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("rate cache invalidation failed")
	}
}

func scoreOffer(offer *models.Offer, rates valuation.RateTable) *ValuedOffer {
	v := valuation.ScoreOffer(offer, rates)
	return &ValuedOffer{
		Offer:         offer,
		CentsPerPoint: v.CentsPerPoint,
		BonusValue:    v.BonusValue,
		NetValue:      v.NetValue,
	}
}

func validateFilters(filters *storage.OfferFilters) error {
	if filters == nil {
		return nil
	}

	if filters.MinBonus != nil && *filters.MinBonus < 0 {
		return &types.ServiceError{
			Code:    "INVALID_FILTER",
			Message: fmt.Sprintf("minBonus must not be negative: %d", *filters.MinBonus),
		}
	}

	if filters.MaxSpend != nil && filters.MaxSpend.IsNegative() {
		return &types.ServiceError{
			Code:    "INVALID_FILTER",
			Message: fmt.Sprintf("maxSpend must not be negative: %s", filters.MaxSpend),
		}
	}

	if filters.Status != nil && !filters.Status.IsValid() {
		return &types.ServiceError{
			Code:    "INVALID_STATUS",
			Message: fmt.Sprintf("invalid offer status: %s", *filters.Status),
		}
	}

	return nil
}

func validateOffer(offer *models.Offer) error {
	if offer.BonusPoints < 0 {
		return &types.ServiceError{
			Code:    "INVALID_FILTER",
			Message: "bonusPoints must not be negative",
		}
	}
	if offer.Status != "" && !offer.Status.IsValid() {
		return &types.ServiceError{
			Code:    "INVALID_STATUS",
			Message: fmt.Sprintf("invalid offer status: %s", offer.Status),
		}
	}
	return nil
}

func validateCurrency(val *models.CurrencyValuation) error {
	if val.CurrencyCode == "" {
		return &types.ServiceError{
			Code:    "INVALID_CURRENCY_CODE",
			Message: "currencyCode is required",
		}
	}
	if val.CentsPerPoint.IsNegative() {
		return &types.ServiceError{
			Code:    "INVALID_CURRENCY_CODE",
			Message: fmt.Sprintf("centsPerPoint must not be negative: %s", val.CentsPerPoint),
		}
	}
	return nil
}
