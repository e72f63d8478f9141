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

// CardProductRepository handles card product data persistence
type CardProductRepository struct {
	db *PostgresDB
}

// NewCardProductRepository creates a new card product repository
func NewCardProductRepository(db *PostgresDB) *CardProductRepository {
	return &CardProductRepository{db: db}
}

const productColumns = `
	p.id, p.issuer_id, p.name, p.slug, p.network, p.type,
	p.currency, p.currency_code, p.description,
	(SELECT COUNT(*) FROM offers o WHERE o.product_id = p.id),
	p.created_at, p.updated_at,
	i.id, i.name, i.slug, i.website, i.created_at, i.updated_at`

// scanProduct scans a product row joined with its issuer
func scanProduct(row pgx.Row) (*models.CardProduct, error) {
	var product models.CardProduct
	var issuer models.Issuer

	err := row.Scan(
		&product.ID,
		&product.IssuerID,
		&product.Name,
		&product.Slug,
		&product.Network,
		&product.Type,
		&product.Currency,
		&product.CurrencyCode,
		&product.Description,
		&product.OfferCount,
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
	return &product, nil
}

// Create creates a new card product
func (r *CardProductRepository) Create(ctx context.Context, product *models.CardProduct) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `
		INSERT INTO card_products (
			id, issuer_id, name, slug, network, type,
			currency, currency_code, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		product.ID,
		product.IssuerID,
		product.Name,
		product.Slug,
		product.Network,
		product.Type,
		product.Currency,
		product.CurrencyCode,
		product.Description,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return &types.ServiceError{
				Code:    "DUPLICATE_SLUG",
				Message: fmt.Sprintf("card product slug already exists: %s", product.Slug),
				Details: map[string]interface{}{"slug": product.Slug},
			}
		}
		if isForeignKeyViolation(err) {
			return &types.ServiceError{
				Code:    "ISSUER_NOT_FOUND",
				Message: fmt.Sprintf("issuer not found: %s", product.IssuerID),
			}
		}
		return fmt.Errorf("failed to create card product: %w", err)
	}

	return nil
}

// GetByID retrieves a card product by ID, joined with its issuer
func (r *CardProductRepository) GetByID(ctx context.Context, id string) (*models.CardProduct, error) {
	return r.getOne(ctx, "p.id", id)
}

// GetBySlug retrieves a card product by its unique slug, joined with its issuer
func (r *CardProductRepository) GetBySlug(ctx context.Context, slug string) (*models.CardProduct, error) {
	return r.getOne(ctx, "p.slug", slug)
}

func (r *CardProductRepository) getOne(ctx context.Context, column, value string) (*models.CardProduct, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM card_products p
		JOIN issuers i ON i.id = p.issuer_id
		WHERE %s = $1
	`, productColumns, column)

	product, err := scanProduct(r.db.Pool().QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "PRODUCT_NOT_FOUND",
				Message: fmt.Sprintf("card product not found: %s", value),
			}
		}
		return nil, fmt.Errorf("failed to get card product: %w", err)
	}

	return product, nil
}

// List retrieves all card products with their issuers and offer counts,
// ordered by name
func (r *CardProductRepository) List(ctx context.Context) ([]*models.CardProduct, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM card_products p
		JOIN issuers i ON i.id = p.issuer_id
		ORDER BY p.name ASC
	`, productColumns)

	return r.list(ctx, query)
}

// ListByIssuer retrieves all card products owned by an issuer
func (r *CardProductRepository) ListByIssuer(ctx context.Context, issuerID string) ([]*models.CardProduct, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM card_products p
		JOIN issuers i ON i.id = p.issuer_id
		WHERE p.issuer_id = $1
		ORDER BY p.name ASC
	`, productColumns)

	return r.list(ctx, query, issuerID)
}

func (r *CardProductRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.CardProduct, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list card products: %w", err)
	}
	defer rows.Close()

	var products []*models.CardProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card products: %w", err)
	}

	return products, nil
}

// Update updates an existing card product
func (r *CardProductRepository) Update(ctx context.Context, product *models.CardProduct) error {
	product.UpdatedAt = time.Now()

	query := `
		UPDATE card_products
		SET name = $2, slug = $3, network = $4, type = $5,
			currency = $6, currency_code = $7, description = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		product.ID,
		product.Name,
		product.Slug,
		product.Network,
		product.Type,
		product.Currency,
		product.CurrencyCode,
		product.Description,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return &types.ServiceError{
				Code:    "DUPLICATE_SLUG",
				Message: fmt.Sprintf("card product slug already exists: %s", product.Slug),
			}
		}
		return fmt.Errorf("failed to update card product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "PRODUCT_NOT_FOUND",
			Message: fmt.Sprintf("card product not found: %s", product.ID),
		}
	}

	return nil
}

// Delete deletes a card product by ID
func (r *CardProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM card_products WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete card product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "PRODUCT_NOT_FOUND",
			Message: fmt.Sprintf("card product not found: %s", id),
		}
	}

	return nil
}
