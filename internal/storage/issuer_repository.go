package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/types"
)

// IssuerRepository handles issuer data persistence
type IssuerRepository struct {
	db *PostgresDB
}

// NewIssuerRepository creates a new issuer repository
func NewIssuerRepository(db *PostgresDB) *IssuerRepository {
	return &IssuerRepository{db: db}
}

// Create creates a new issuer
func (r *IssuerRepository) Create(ctx context.Context, issuer *models.Issuer) error {
	if issuer.ID == "" {
		issuer.ID = uuid.New().String()
	}

	now := time.Now()
	issuer.CreatedAt = now
	issuer.UpdatedAt = now

	query := `
		INSERT INTO issuers (id, name, slug, website, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		issuer.ID,
		issuer.Name,
		issuer.Slug,
		issuer.Website,
		issuer.CreatedAt,
		issuer.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return &types.ServiceError{
				Code:    "DUPLICATE_SLUG",
				Message: fmt.Sprintf("issuer slug already exists: %s", issuer.Slug),
				Details: map[string]interface{}{"slug": issuer.Slug},
			}
		}
		return fmt.Errorf("failed to create issuer: %w", err)
	}

	return nil
}

// GetByID retrieves an issuer by ID
func (r *IssuerRepository) GetByID(ctx context.Context, id string) (*models.Issuer, error) {
	return r.getOne(ctx, "id", id)
}

// GetBySlug retrieves an issuer by its unique slug
func (r *IssuerRepository) GetBySlug(ctx context.Context, slug string) (*models.Issuer, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *IssuerRepository) getOne(ctx context.Context, column, value string) (*models.Issuer, error) {
	query := fmt.Sprintf(`
		SELECT i.id, i.name, i.slug, i.website,
			(SELECT COUNT(*) FROM card_products p WHERE p.issuer_id = i.id),
			i.created_at, i.updated_at
		FROM issuers i
		WHERE i.%s = $1
	`, column)

	var issuer models.Issuer
	err := r.db.Pool().QueryRow(ctx, query, value).Scan(
		&issuer.ID,
		&issuer.Name,
		&issuer.Slug,
		&issuer.Website,
		&issuer.ProductCount,
		&issuer.CreatedAt,
		&issuer.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "ISSUER_NOT_FOUND",
				Message: fmt.Sprintf("issuer not found: %s", value),
			}
		}
		return nil, fmt.Errorf("failed to get issuer: %w", err)
	}

	return &issuer, nil
}

// List retrieves all issuers with their product counts, ordered by name
func (r *IssuerRepository) List(ctx context.Context) ([]*models.Issuer, error) {
	query := `
		SELECT i.id, i.name, i.slug, i.website,
			(SELECT COUNT(*) FROM card_products p WHERE p.issuer_id = i.id),
			i.created_at, i.updated_at
		FROM issuers i
		ORDER BY i.name ASC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuers: %w", err)
	}
	defer rows.Close()

	var issuers []*models.Issuer
	for rows.Next() {
		var issuer models.Issuer
		err := rows.Scan(
			&issuer.ID,
			&issuer.Name,
			&issuer.Slug,
			&issuer.Website,
			&issuer.ProductCount,
			&issuer.CreatedAt,
			&issuer.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issuer: %w", err)
		}
		issuers = append(issuers, &issuer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issuers: %w", err)
	}

	return issuers, nil
}

// Update updates an existing issuer
func (r *IssuerRepository) Update(ctx context.Context, issuer *models.Issuer) error {
	issuer.UpdatedAt = time.Now()

	query := `
		UPDATE issuers
		SET name = $2, slug = $3, website = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		issuer.ID,
		issuer.Name,
		issuer.Slug,
		issuer.Website,
		issuer.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return &types.ServiceError{
				Code:    "DUPLICATE_SLUG",
				Message: fmt.Sprintf("issuer slug already exists: %s", issuer.Slug),
			}
		}
		return fmt.Errorf("failed to update issuer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "ISSUER_NOT_FOUND",
			Message: fmt.Sprintf("issuer not found: %s", issuer.ID),
		}
	}

	return nil
}

// Delete deletes an issuer by ID. Deletion is blocked while dependent card
// products exist.
func (r *IssuerRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM issuers WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &types.ServiceError{
				Code:    "ISSUER_HAS_PRODUCTS",
				Message: fmt.Sprintf("issuer has dependent card products: %s", id),
			}
		}
		return fmt.Errorf("failed to delete issuer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "ISSUER_NOT_FOUND",
			Message: fmt.Sprintf("issuer not found: %s", id),
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a Postgres foreign key violation
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
