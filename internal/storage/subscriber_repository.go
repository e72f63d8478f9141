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

// SubscriberRepository handles subscriber and preference persistence
type SubscriberRepository struct {
	db *PostgresDB
}

// NewSubscriberRepository creates a new subscriber repository
func NewSubscriberRepository(db *PostgresDB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

const subscriberColumns = `
	id, email, email_verified, verification_token, unsubscribe_token,
	unsubscribed_at, created_at, updated_at`

func scanSubscriber(row pgx.Row) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := row.Scan(
		&sub.ID,
		&sub.Email,
		&sub.EmailVerified,
		&sub.VerificationToken,
		&sub.UnsubscribeToken,
		&sub.UnsubscribedAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create creates a new subscriber. Tokens must be set by the caller.
func (r *SubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
		INSERT INTO subscribers (id, email, email_verified, verification_token,
			unsubscribe_token, unsubscribed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		sub.ID,
		sub.Email,
		sub.EmailVerified,
		sub.VerificationToken,
		sub.UnsubscribeToken,
		sub.UnsubscribedAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return &types.ServiceError{
				Code:    "DUPLICATE_EMAIL",
				Message: fmt.Sprintf("subscriber already exists: %s", sub.Email),
				Details: map[string]interface{}{"email": sub.Email},
			}
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	return nil
}

// GetByEmail retrieves a subscriber by email, with preferences loaded
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	return r.getOne(ctx, "email", email, "SUBSCRIBER_NOT_FOUND")
}

// GetByVerificationToken looks a subscriber up by their pending verification
// token. Returns INVALID_TOKEN when no subscriber holds the token.
func (r *SubscriberRepository) GetByVerificationToken(ctx context.Context, token string) (*models.Subscriber, error) {
	return r.getOne(ctx, "verification_token", token, "INVALID_TOKEN")
}

// GetByUnsubscribeToken looks a subscriber up by their unsubscribe token
func (r *SubscriberRepository) GetByUnsubscribeToken(ctx context.Context, token string) (*models.Subscriber, error) {
	return r.getOne(ctx, "unsubscribe_token", token, "INVALID_TOKEN")
}

func (r *SubscriberRepository) getOne(ctx context.Context, column, value, notFoundCode string) (*models.Subscriber, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM subscribers WHERE %s = $1
	`, subscriberColumns, column)

	sub, err := scanSubscriber(r.db.Pool().QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    notFoundCode,
				Message: "subscriber not found",
			}
		}
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	if err := r.loadPreferences(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (r *SubscriberRepository) loadPreferences(ctx context.Context, sub *models.Subscriber) error {
	query := `
		SELECT id, subscriber_id, issuer_slug, currency_code
		FROM subscriber_preferences
		WHERE subscriber_id = $1
	`

	rows, err := r.db.Pool().Query(ctx, query, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to load subscriber preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pref models.SubscriberPreference
		if err := rows.Scan(&pref.ID, &pref.SubscriberID, &pref.IssuerSlug, &pref.CurrencyCode); err != nil {
			return fmt.Errorf("failed to scan subscriber preference: %w", err)
		}
		sub.Preferences = append(sub.Preferences, pref)
	}

	return rows.Err()
}

// VerifyEmail marks a subscriber verified and clears the one-time token
func (r *SubscriberRepository) VerifyEmail(ctx context.Context, id string) error {
	query := `
		UPDATE subscribers
		SET email_verified = TRUE, verification_token = NULL, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to verify subscriber: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "SUBSCRIBER_NOT_FOUND",
			Message: fmt.Sprintf("subscriber not found: %s", id),
		}
	}

	return nil
}

// Unsubscribe records the opt-out time. Idempotent for already unsubscribed rows.
func (r *SubscriberRepository) Unsubscribe(ctx context.Context, id string) error {
	query := `
		UPDATE subscribers
		SET unsubscribed_at = COALESCE(unsubscribed_at, $2), updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "SUBSCRIBER_NOT_FOUND",
			Message: fmt.Sprintf("subscriber not found: %s", id),
		}
	}

	return nil
}

// ReplacePreferences swaps a subscriber's preference set atomically. The prior
// set is removed and the given set is written in a single transaction.
func (r *SubscriberRepository) ReplacePreferences(ctx context.Context, subscriberID string, prefs []models.SubscriberPreference) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM subscriber_preferences WHERE subscriber_id = $1`, subscriberID,
	); err != nil {
		return fmt.Errorf("failed to clear subscriber preferences: %w", err)
	}

	for i := range prefs {
		if prefs[i].ID == "" {
			prefs[i].ID = uuid.New().String()
		}
		prefs[i].SubscriberID = subscriberID

		_, err := tx.Exec(ctx, `
			INSERT INTO subscriber_preferences (id, subscriber_id, issuer_slug, currency_code)
			VALUES ($1, $2, $3, $4)
		`, prefs[i].ID, prefs[i].SubscriberID, prefs[i].IssuerSlug, prefs[i].CurrencyCode)
		if err != nil {
			if isForeignKeyViolation(err) {
				return &types.ServiceError{
					Code:    "SUBSCRIBER_NOT_FOUND",
					Message: fmt.Sprintf("subscriber not found: %s", subscriberID),
				}
			}
			return fmt.Errorf("failed to insert subscriber preference: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit preference update: %w", err)
	}

	return nil
}

// ListEligible returns verified, non-unsubscribed subscribers with their
// preferences loaded. Used by digest delivery.
func (r *SubscriberRepository) ListEligible(ctx context.Context) ([]*models.Subscriber, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM subscribers
		WHERE email_verified = TRUE AND unsubscribed_at IS NULL
		ORDER BY created_at ASC
	`, subscriberColumns)

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	for _, sub := range subs {
		if err := r.loadPreferences(ctx, sub); err != nil {
			return nil, err
		}
	}

	return subs, nil
}
