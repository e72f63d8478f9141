package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/types"
)

// DefaultSnapshotLimit caps per-offer history listings
const DefaultSnapshotLimit = 52

// SnapshotRepository handles offer snapshot persistence. Snapshots are
// append-only; there are no update or delete operations.
type SnapshotRepository struct {
	db *PostgresDB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *PostgresDB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = `
	s.id, s.offer_id, s.bonus_points, s.min_spend_amount,
	s.min_spend_window_days, s.annual_fee, s.statement_credits,
	s.expires_on, s.landing_url, s.captured_at, s.diff_summary`

func scanSnapshot(row pgx.Row) (*models.OfferSnapshot, error) {
	var snap models.OfferSnapshot
	err := row.Scan(
		&snap.ID,
		&snap.OfferID,
		&snap.BonusPoints,
		&snap.MinSpendAmount,
		&snap.MinSpendWindowDays,
		&snap.AnnualFee,
		&snap.StatementCredits,
		&snap.ExpiresOn,
		&snap.LandingURL,
		&snap.CapturedAt,
		&snap.DiffSummary,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Create appends a new snapshot for an offer
func (r *SnapshotRepository) Create(ctx context.Context, snap *models.OfferSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now()
	}

	query := `
		INSERT INTO offer_snapshots (
			id, offer_id, bonus_points, min_spend_amount, min_spend_window_days,
			annual_fee, statement_credits, expires_on, landing_url,
			captured_at, diff_summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		snap.ID,
		snap.OfferID,
		snap.BonusPoints,
		snap.MinSpendAmount,
		snap.MinSpendWindowDays,
		snap.AnnualFee,
		snap.StatementCredits,
		snap.ExpiresOn,
		snap.LandingURL,
		snap.CapturedAt,
		snap.DiffSummary,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return &types.ServiceError{
				Code:    "OFFER_NOT_FOUND",
				Message: fmt.Sprintf("offer not found: %s", snap.OfferID),
			}
		}
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	return nil
}

// GetLatest returns the most recent snapshot for an offer, or nil when the
// offer has no snapshots yet. Absence is not an error.
func (r *SnapshotRepository) GetLatest(ctx context.Context, offerID string) (*models.OfferSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offer_snapshots s
		WHERE s.offer_id = $1
		ORDER BY s.captured_at DESC
		LIMIT 1
	`, snapshotColumns)

	snap, err := scanSnapshot(r.db.Pool().QueryRow(ctx, query, offerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return snap, nil
}

// ListByOffer returns an offer's snapshot history, newest first. A limit of
// zero or less falls back to DefaultSnapshotLimit.
func (r *SnapshotRepository) ListByOffer(ctx context.Context, offerID string, limit int) ([]*models.OfferSnapshot, error) {
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM offer_snapshots s
		WHERE s.offer_id = $1
		ORDER BY s.captured_at DESC
		LIMIT $2
	`, snapshotColumns)

	rows, err := r.db.Pool().Query(ctx, query, offerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*models.OfferSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}

// GetChangesSince returns snapshots captured after the cutoff that recorded a
// material change, joined with their offer, product and issuer for rendering.
// Results are ordered newest first.
func (r *SnapshotRepository) GetChangesSince(ctx context.Context, since time.Time) ([]*models.OfferSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM offer_snapshots s
		JOIN offers o ON o.id = s.offer_id
		JOIN card_products p ON p.id = o.product_id
		JOIN issuers i ON i.id = p.issuer_id
		WHERE s.captured_at >= $1 AND s.diff_summary IS NOT NULL
		ORDER BY s.captured_at DESC
	`, snapshotColumns, offerColumns)

	rows, err := r.db.Pool().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot changes: %w", err)
	}
	defer rows.Close()

	var snaps []*models.OfferSnapshot
	for rows.Next() {
		var snap models.OfferSnapshot
		var offer models.Offer
		var product models.CardProduct
		var issuer models.Issuer

		err := rows.Scan(
			&snap.ID,
			&snap.OfferID,
			&snap.BonusPoints,
			&snap.MinSpendAmount,
			&snap.MinSpendWindowDays,
			&snap.AnnualFee,
			&snap.StatementCredits,
			&snap.ExpiresOn,
			&snap.LandingURL,
			&snap.CapturedAt,
			&snap.DiffSummary,
			&offer.ID,
			&offer.ProductID,
			&offer.Headline,
			&offer.BonusPoints,
			&offer.MinSpendAmount,
			&offer.MinSpendWindowDays,
			&offer.AnnualFee,
			&offer.FirstYearWaived,
			&offer.StatementCredits,
			&offer.LandingURL,
			&offer.SourceType,
			&offer.Geo,
			&offer.Status,
			&offer.LastVerifiedAt,
			&offer.PublishedAt,
			&offer.CreatedAt,
			&offer.UpdatedAt,
			&product.ID,
			&product.IssuerID,
			&product.Name,
			&product.Slug,
			&product.Network,
			&product.Type,
			&product.Currency,
			&product.CurrencyCode,
			&product.Description,
			&product.CreatedAt,
			&product.UpdatedAt,
			&issuer.ID,
			&issuer.Name,
			&issuer.Slug,
			&issuer.Website,
			&issuer.CreatedAt,
			&issuer.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot change: %w", err)
		}

		product.Issuer = &issuer
		offer.Product = &product
		snap.Offer = &offer
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot changes: %w", err)
	}

	return snaps, nil
}

// CountByOffer returns the number of snapshots recorded for an offer
func (r *SnapshotRepository) CountByOffer(ctx context.Context, offerID string) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM offer_snapshots WHERE offer_id = $1`, offerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}
