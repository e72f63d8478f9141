package service

import (
	"context"
	"time"

	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/models"
)

// SnapshotRepository interface for snapshot data operations
type SnapshotRepository interface {
	Create(ctx context.Context, snap *models.OfferSnapshot) error
	GetLatest(ctx context.Context, offerID string) (*models.OfferSnapshot, error)
	ListByOffer(ctx context.Context, offerID string, limit int) ([]*models.OfferSnapshot, error)
	GetChangesSince(ctx context.Context, since time.Time) ([]*models.OfferSnapshot, error)
}

// SnapshotService records offer observations and serves the change feed.
// Record is written for a single-writer ingestion job; concurrent writers for
// the same offer would race on the latest-snapshot read.
type SnapshotService struct {
	repo         SnapshotRepository
	window       time.Duration
	historyLimit int
	logger       *logging.Logger
}

// NewSnapshotService creates a new snapshot service. window is the lookback
// used by the weekly change feed; historyLimit caps per-offer history
// listings. Zero values fall back to the defaults.
func NewSnapshotService(repo SnapshotRepository, window time.Duration, historyLimit int) *SnapshotService {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if historyLimit <= 0 {
		historyLimit = 52
	}
	return &SnapshotService{
		repo:         repo,
		window:       window,
		historyLimit: historyLimit,
		logger:       logging.GetGlobalLogger().WithField("service", "snapshot"),
	}
}

// Record appends a new observation for an offer. The diff summary against the
// previous snapshot is computed here and stored denormalized, so the change
// feed never re-derives it. The summary stays nil on the first observation and
// on observations identical to the previous one.
func (s *SnapshotService) Record(ctx context.Context, snap *models.OfferSnapshot) error {
	prev, err := s.repo.GetLatest(ctx, snap.OfferID)
	if err != nil {
		return err
	}

	snap.DiffSummary = nil
	if prev != nil {
		if changes := ComputeDiff(prev, snap); len(changes) > 0 {
			summary := RenderDiff(changes)
			snap.DiffSummary = &summary

			s.logger.WithFields(map[string]interface{}{
				"offer_id": snap.OfferID,
				"changes":  len(changes),
			}).Info("offer terms changed")
		}
	}

	return s.repo.Create(ctx, snap)
}

// GetLatest returns the most recent snapshot for an offer, nil when none exists
func (s *SnapshotService) GetLatest(ctx context.Context, offerID string) (*models.OfferSnapshot, error) {
	return s.repo.GetLatest(ctx, offerID)
}

// History returns an offer's snapshot history, newest first. A non-positive
// limit falls back to the configured history limit.
func (s *SnapshotService) History(ctx context.Context, offerID string, limit int) ([]*models.OfferSnapshot, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.repo.ListByOffer(ctx, offerID, limit)
}

// GetWeeklyChanges returns snapshots inside the configured lookback window
// that recorded a change, newest first, with offers attached for rendering.
func (s *SnapshotService) GetWeeklyChanges(ctx context.Context) ([]*models.OfferSnapshot, error) {
	return s.repo.GetChangesSince(ctx, time.Now().Add(-s.window))
}

// GetChangesSince returns changed snapshots captured at or after the cutoff
func (s *SnapshotService) GetChangesSince(ctx context.Context, since time.Time) ([]*models.OfferSnapshot, error) {
	return s.repo.GetChangesSince(ctx, since)
}

// CaptureFromOffer builds a snapshot from an offer's current terms and records
// it. Used by the ingestion job after verifying an offer.
func (s *SnapshotService) CaptureFromOffer(ctx context.Context, offer *models.Offer, expiresOn *time.Time) error {
	return s.Record(ctx, &models.OfferSnapshot{
		OfferID:            offer.ID,
		BonusPoints:        offer.BonusPoints,
		MinSpendAmount:     offer.MinSpendAmount,
		MinSpendWindowDays: offer.MinSpendWindowDays,
		AnnualFee:          offer.AnnualFee,
		StatementCredits:   offer.StatementCredits,
		ExpiresOn:          expiresOn,
		LandingURL:         offer.LandingURL,
		CapturedAt:         time.Now(),
	})
}
