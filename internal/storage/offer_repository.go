package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/types"
)

// OfferFilters holds the optional filter predicate set for offer listings.
// All filters are conjunctive.
type OfferFilters struct {
	IssuerSlug      *string
	CurrencyCode    *string
	MinBonus        *int64             // inclusive lower bound on bonus points
	MaxSpend        *decimal.Decimal   // inclusive upper bound on min spend requirement
	Status          *types.OfferStatus // defaults to ACTIVE when unset
	FirstYearWaived *bool
}

// OfferRepository handles offer data persistence
type OfferRepository struct {
	db *PostgresDB
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *PostgresDB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `
	o.id, o.product_id, o.headline, o.bonus_points, o.min_spend_amount,
	o.min_spend_window_days, o.annual_fee, o.first_year_waived,
	o.statement_credits, o.landing_url, o.source_type, o.geo, o.status,
	o.last_verified_at, o.published_at, o.created_at, o.updated_at,
	p.id, p.issuer_id, p.name, p.slug, p.network, p.type,
	p.currency, p.currency_code, p.description, p.created_at, p.updated_at,
	i.id, i.name, i.slug, i.website, i.created_at, i.updated_at`

// scanOffer scans an offer row joined with its product and issuer
func scanOffer(row pgx.Row) (*models.Offer, error) {
	var offer models.Offer
	var product models.CardProduct
	var issuer models.Issuer

	err := row.Scan(
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
		return nil, err
	}

	product.Issuer = &issuer
	offer.Product = &product
	return &offer, nil
}

// Find retrieves offers matching the filter set, joined with their owning
// product and issuer. Status defaults to ACTIVE when unspecified. Rows are
// ordered by last_verified_at descending; value ordering is applied by the
// caller after valuation.
func (r *OfferRepository) Find(ctx context.Context, filters *OfferFilters) ([]*models.Offer, error) {
	status := types.StatusActive
	if filters != nil && filters.Status != nil {
		status = *filters.Status
	}

	conditions := []string{"o.status = $1"}
	args := []interface{}{status}

	if filters != nil {
		if filters.MinBonus != nil {
			args = append(args, *filters.MinBonus)
			conditions = append(conditions, fmt.Sprintf("o.bonus_points >= $%d", len(args)))
		}
		if filters.MaxSpend != nil {
			args = append(args, *filters.MaxSpend)
			conditions = append(conditions, fmt.Sprintf("o.min_spend_amount <= $%d", len(args)))
		}
		if filters.FirstYearWaived != nil {
			args = append(args, *filters.FirstYearWaived)
			conditions = append(conditions, fmt.Sprintf("o.first_year_waived = $%d", len(args)))
		}
		if filters.IssuerSlug != nil {
			args = append(args, *filters.IssuerSlug)
			conditions = append(conditions, fmt.Sprintf("i.slug = $%d", len(args)))
		}
		if filters.CurrencyCode != nil {
			args = append(args, *filters.CurrencyCode)
			conditions = append(conditions, fmt.Sprintf("p.currency_code = $%d", len(args)))
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM offers o
		JOIN card_products p ON p.id = o.product_id
		JOIN issuers i ON i.id = p.issuer_id
		WHERE %s
		ORDER BY o.last_verified_at DESC
	`, offerColumns, strings.Join(conditions, " AND "))

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// GetByID retrieves an offer by ID, joined with its product and issuer
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offers o
		JOIN card_products p ON p.id = o.product_id
		JOIN issuers i ON i.id = p.issuer_id
		WHERE o.id = $1
	`, offerColumns)

	offer, err := scanOffer(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "OFFER_NOT_FOUND",
				Message: fmt.Sprintf("offer not found: %s", id),
			}
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return offer, nil
}

// ListByProduct retrieves all offers for a product, newest first
func (r *OfferRepository) ListByProduct(ctx context.Context, productID string) ([]*models.Offer, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM offers o
		JOIN card_products p ON p.id = o.product_id
		JOIN issuers i ON i.id = p.issuer_id
		WHERE o.product_id = $1
		ORDER BY o.created_at DESC
	`, offerColumns)

	rows, err := r.db.Pool().Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers by product: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// Create creates a new offer
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}

	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	if offer.LastVerifiedAt.IsZero() {
		offer.LastVerifiedAt = now
	}

	query := `
		INSERT INTO offers (
			id, product_id, headline, bonus_points, min_spend_amount,
			min_spend_window_days, annual_fee, first_year_waived,
			statement_credits, landing_url, source_type, geo, status,
			last_verified_at, published_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		offer.ID,
		offer.ProductID,
		offer.Headline,
		offer.BonusPoints,
		offer.MinSpendAmount,
		offer.MinSpendWindowDays,
		offer.AnnualFee,
		offer.FirstYearWaived,
		offer.StatementCredits,
		offer.LandingURL,
		offer.SourceType,
		offer.Geo,
		offer.Status,
		offer.LastVerifiedAt,
		offer.PublishedAt,
		offer.CreatedAt,
		offer.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return &types.ServiceError{
				Code:    "PRODUCT_NOT_FOUND",
				Message: fmt.Sprintf("card product not found: %s", offer.ProductID),
			}
		}
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return nil
}

// Update updates an existing offer
func (r *OfferRepository) Update(ctx context.Context, offer *models.Offer) error {
	offer.UpdatedAt = time.Now()

	query := `
		UPDATE offers
		SET headline = $2, bonus_points = $3, min_spend_amount = $4,
			min_spend_window_days = $5, annual_fee = $6, first_year_waived = $7,
			statement_credits = $8, landing_url = $9, source_type = $10,
			geo = $11, status = $12, last_verified_at = $13, published_at = $14,
			updated_at = $15
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		offer.ID,
		offer.Headline,
		offer.BonusPoints,
		offer.MinSpendAmount,
		offer.MinSpendWindowDays,
		offer.AnnualFee,
		offer.FirstYearWaived,
		offer.StatementCredits,
		offer.LandingURL,
		offer.SourceType,
		offer.Geo,
		offer.Status,
		offer.LastVerifiedAt,
		offer.PublishedAt,
		offer.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "OFFER_NOT_FOUND",
			Message: fmt.Sprintf("offer not found: %s", offer.ID),
		}
	}

	return nil
}

// UpdateStatus updates only the status of an offer
func (r *OfferRepository) UpdateStatus(ctx context.Context, id string, status types.OfferStatus) error {
	if !status.IsValid() {
		return &types.ServiceError{
			Code:    "INVALID_STATUS",
			Message: fmt.Sprintf("invalid offer status: %s", status),
		}
	}

	query := `UPDATE offers SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "OFFER_NOT_FOUND",
			Message: fmt.Sprintf("offer not found: %s", id),
		}
	}

	return nil
}

// Delete deletes an offer by ID
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM offers WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "OFFER_NOT_FOUND",
			Message: fmt.Sprintf("offer not found: %s", id),
		}
	}

	return nil
}
