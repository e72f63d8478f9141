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
	"github.com/offer-tracker/internal/valuation"
)

// CurrencyRepository handles currency valuation persistence
type CurrencyRepository struct {
	db *PostgresDB
}

// NewCurrencyRepository creates a new currency repository
func NewCurrencyRepository(db *PostgresDB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// Create creates a new currency valuation
func (r *CurrencyRepository) Create(ctx context.Context, val *models.CurrencyValuation) error {
	if val.ID == "" {
		val.ID = uuid.New().String()
	}

	now := time.Now()
	val.CreatedAt = now
	val.UpdatedAt = now

	query := `
		INSERT INTO currency_valuations (id, currency_code, cents_per_point, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		val.ID,
		val.CurrencyCode,
		val.CentsPerPoint,
		val.Notes,
		val.CreatedAt,
		val.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return &types.ServiceError{
				Code:    "DUPLICATE_CURRENCY_CODE",
				Message: fmt.Sprintf("currency valuation already exists: %s", val.CurrencyCode),
				Details: map[string]interface{}{"currencyCode": val.CurrencyCode},
			}
		}
		return fmt.Errorf("failed to create currency valuation: %w", err)
	}

	return nil
}

// GetByCode retrieves a currency valuation by its currency code
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*models.CurrencyValuation, error) {
	query := `
		SELECT id, currency_code, cents_per_point, notes, created_at, updated_at
		FROM currency_valuations
		WHERE currency_code = $1
	`

	var val models.CurrencyValuation
	err := r.db.Pool().QueryRow(ctx, query, code).Scan(
		&val.ID,
		&val.CurrencyCode,
		&val.CentsPerPoint,
		&val.Notes,
		&val.CreatedAt,
		&val.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "VALUATION_NOT_FOUND",
				Message: fmt.Sprintf("currency valuation not found: %s", code),
			}
		}
		return nil, fmt.Errorf("failed to get currency valuation: %w", err)
	}

	return &val, nil
}

// List retrieves all currency valuations ordered by currency code
func (r *CurrencyRepository) List(ctx context.Context) ([]*models.CurrencyValuation, error) {
	query := `
		SELECT id, currency_code, cents_per_point, notes, created_at, updated_at
		FROM currency_valuations
		ORDER BY currency_code ASC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list currency valuations: %w", err)
	}
	defer rows.Close()

	var vals []*models.CurrencyValuation
	for rows.Next() {
		var val models.CurrencyValuation
		err := rows.Scan(
			&val.ID,
			&val.CurrencyCode,
			&val.CentsPerPoint,
			&val.Notes,
			&val.CreatedAt,
			&val.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan currency valuation: %w", err)
		}
		vals = append(vals, &val)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency valuations: %w", err)
	}

	return vals, nil
}

// BulkValuations returns the published rates as a code-to-rate lookup table
func (r *CurrencyRepository) BulkValuations(ctx context.Context) (valuation.RateTable, error) {
	vals, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	rates := make(valuation.RateTable, len(vals))
	for _, val := range vals {
		rates[val.CurrencyCode] = val.CentsPerPoint.InexactFloat64()
	}

	return rates, nil
}

// Update updates an existing currency valuation's rate and notes. The currency
// code is immutable once published.
func (r *CurrencyRepository) Update(ctx context.Context, val *models.CurrencyValuation) error {
	val.UpdatedAt = time.Now()

	query := `
		UPDATE currency_valuations
		SET cents_per_point = $2, notes = $3, updated_at = $4
		WHERE currency_code = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		val.CurrencyCode,
		val.CentsPerPoint,
		val.Notes,
		val.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update currency valuation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "VALUATION_NOT_FOUND",
			Message: fmt.Sprintf("currency valuation not found: %s", val.CurrencyCode),
		}
	}

	return nil
}
