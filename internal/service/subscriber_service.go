package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/types"
)

// SubscriberRepository interface for subscriber data operations
type SubscriberRepository interface {
	Create(ctx context.Context, sub *models.Subscriber) error
	GetByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.Subscriber, error)
	GetByUnsubscribeToken(ctx context.Context, token string) (*models.Subscriber, error)
	VerifyEmail(ctx context.Context, id string) error
	Unsubscribe(ctx context.Context, id string) error
	ReplacePreferences(ctx context.Context, subscriberID string, prefs []models.SubscriberPreference) error
	ListEligible(ctx context.Context) ([]*models.Subscriber, error)
}

// SubscriberService handles the subscriber lifecycle: signup, email
// verification, preference management and opt-out.
type SubscriberService struct {
	repo   SubscriberRepository
	logger *logging.Logger
}

// NewSubscriberService creates a new subscriber service
func NewSubscriberService(repo SubscriberRepository) *SubscriberService {
	return &SubscriberService{
		repo:   repo,
		logger: logging.GetGlobalLogger().WithField("service", "subscriber"),
	}
}

// Subscribe registers a new subscriber in the unverified state. Both tokens
// are minted here; the verification token is one-time and cleared on verify.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	verificationToken := uuid.New().String()
	sub := &models.Subscriber{
		Email:             email,
		EmailVerified:     false,
		VerificationToken: &verificationToken,
		UnsubscribeToken:  uuid.New().String(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.WithField("subscriber_id", sub.ID).Info("subscriber created")
	return sub, nil
}

// Verify confirms a subscriber's email using their one-time token. The token
// is invalid after a successful verification.
func (s *SubscriberService) Verify(ctx context.Context, token string) (*models.Subscriber, error) {
	if token == "" {
		return nil, &types.ServiceError{
			Code:    "INVALID_TOKEN",
			Message: "verification token is required",
		}
	}

	sub, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.repo.VerifyEmail(ctx, sub.ID); err != nil {
		return nil, err
	}

	sub.EmailVerified = true
	sub.VerificationToken = nil

	s.logger.WithField("subscriber_id", sub.ID).Info("subscriber verified")
	return sub, nil
}

// Unsubscribe opts a subscriber out using their unsubscribe token. Repeating
// the call keeps the original opt-out time.
func (s *SubscriberService) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return &types.ServiceError{
			Code:    "INVALID_TOKEN",
			Message: "unsubscribe token is required",
		}
	}

	sub, err := s.repo.GetByUnsubscribeToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.repo.Unsubscribe(ctx, sub.ID); err != nil {
		return err
	}

	s.logger.WithField("subscriber_id", sub.ID).Info("subscriber opted out")
	return nil
}

// Get returns a subscriber with preferences by email
func (s *SubscriberService) Get(ctx context.Context, email string) (*models.Subscriber, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// UpdatePreferences replaces a subscriber's preference set as a whole. Partial
// edits are not supported; clients send the full desired set.
func (s *SubscriberService) UpdatePreferences(ctx context.Context, email string, prefs []models.SubscriberPreference) (*models.Subscriber, error) {
	sub, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	for _, pref := range prefs {
		if pref.IssuerSlug == nil && pref.CurrencyCode == nil {
			return nil, &types.ServiceError{
				Code:    "INVALID_FILTER",
				Message: "preference must scope an issuer or a currency",
			}
		}
	}

	if err := s.repo.ReplacePreferences(ctx, sub.ID, prefs); err != nil {
		return nil, err
	}

	sub.Preferences = prefs
	return sub, nil
}

// ListEligible returns verified, opted-in subscribers for digest delivery
func (s *SubscriberService) ListEligible(ctx context.Context) ([]*models.Subscriber, error) {
	return s.repo.ListEligible(ctx)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &types.ServiceError{
			Code:    "INVALID_EMAIL",
			Message: fmt.Sprintf("invalid email address: %s", email),
		}
	}
	return nil
}
