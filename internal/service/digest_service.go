package service

import (
	"context"
	"time"

	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/models"
)

// ChangeFeed is the change-feed access digest building needs
type ChangeFeed interface {
	GetWeeklyChanges(ctx context.Context) ([]*models.OfferSnapshot, error)
}

// EligibleSubscriberLister lists subscribers who may receive digests
type EligibleSubscriberLister interface {
	ListEligible(ctx context.Context) ([]*models.Subscriber, error)
}

// Digest is one subscriber's weekly change summary, ready for delivery
type Digest struct {
	Email       string                  `json:"email"`
	Changes     []*models.OfferSnapshot `json:"changes"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// DigestService assembles weekly change digests per subscriber, scoped to
// each subscriber's preferences.
type DigestService struct {
	changes     ChangeFeed
	subscribers EligibleSubscriberLister
	logger      *logging.Logger
}

// NewDigestService creates a new digest service
func NewDigestService(changes ChangeFeed, subscribers EligibleSubscriberLister) *DigestService {
	return &DigestService{
		changes:     changes,
		subscribers: subscribers,
		logger:      logging.GetGlobalLogger().WithField("service", "digest"),
	}
}

// BuildDigests returns one digest per eligible subscriber. Subscribers whose
// preferences match none of the week's changes are skipped; an empty digest is
// never delivered.
func (s *DigestService) BuildDigests(ctx context.Context) ([]*Digest, error) {
	changes, err := s.changes.GetWeeklyChanges(ctx)
	if err != nil {
		return nil, err
	}

	subs, err := s.subscribers.ListEligible(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var digests []*Digest
	for _, sub := range subs {
		matched := filterChanges(changes, sub.Preferences)
		if len(matched) == 0 {
			continue
		}
		digests = append(digests, &Digest{
			Email:       sub.Email,
			Changes:     matched,
			GeneratedAt: now,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"changes":     len(changes),
		"subscribers": len(subs),
		"digests":     len(digests),
	}).Info("weekly digests built")

	return digests, nil
}

// filterChanges keeps the changes a preference set covers. An empty preference
// set means everything; otherwise a change is kept when any single preference
// matches it on both of its populated scopes.
func filterChanges(changes []*models.OfferSnapshot, prefs []models.SubscriberPreference) []*models.OfferSnapshot {
	if len(prefs) == 0 {
		return changes
	}

	var matched []*models.OfferSnapshot
	for _, change := range changes {
		if change.Offer == nil || change.Offer.Product == nil {
			continue
		}
		for _, pref := range prefs {
			if prefMatches(pref, change.Offer.Product) {
				matched = append(matched, change)
				break
			}
		}
	}
	return matched
}

func prefMatches(pref models.SubscriberPreference, product *models.CardProduct) bool {
	if pref.IssuerSlug != nil {
		if product.Issuer == nil || product.Issuer.Slug != *pref.IssuerSlug {
			return false
		}
	}
	if pref.CurrencyCode != nil && product.CurrencyCode != *pref.CurrencyCode {
		return false
	}
	return pref.IssuerSlug != nil || pref.CurrencyCode != nil
}
