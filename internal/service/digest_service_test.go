package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offer-tracker/internal/models"
)

type mockChangeFeed struct {
	changes []*models.OfferSnapshot
}

func (m *mockChangeFeed) GetWeeklyChanges(ctx context.Context) ([]*models.OfferSnapshot, error) {
	return m.changes, nil
}

type mockEligibleLister struct {
	subs []*models.Subscriber
}

func (m *mockEligibleLister) ListEligible(ctx context.Context) ([]*models.Subscriber, error) {
	return m.subs, nil
}

func changeFor(issuerSlug, currencyCode string) *models.OfferSnapshot {
	summary := "Bonus increased 60,000 → 75,000"
	return &models.OfferSnapshot{
		DiffSummary: &summary,
		Offer: &models.Offer{
			Product: &models.CardProduct{
				CurrencyCode: currencyCode,
				Issuer:       &models.Issuer{Slug: issuerSlug},
			},
		},
	}
}

func TestBuildDigestsNoPreferencesGetsEverything(t *testing.T) {
	feed := &mockChangeFeed{changes: []*models.OfferSnapshot{
		changeFor("chase", "UR"),
		changeFor("citi", "AA"),
	}}
	lister := &mockEligibleLister{subs: []*models.Subscriber{
		{Email: "reader@example.com", EmailVerified: true},
	}}

	svc := NewDigestService(feed, lister)

	digests, err := svc.BuildDigests(context.Background())
	require.NoError(t, err)
	require.Len(t, digests, 1)
	assert.Equal(t, "reader@example.com", digests[0].Email)
	assert.Len(t, digests[0].Changes, 2)
	assert.False(t, digests[0].GeneratedAt.IsZero())
}

func TestBuildDigestsFiltersByIssuer(t *testing.T) {
	feed := &mockChangeFeed{changes: []*models.OfferSnapshot{
		changeFor("chase", "UR"),
		changeFor("citi", "AA"),
	}}

	issuer := "chase"
	lister := &mockEligibleLister{subs: []*models.Subscriber{
		{
			Email:         "reader@example.com",
			EmailVerified: true,
			Preferences:   []models.SubscriberPreference{{IssuerSlug: &issuer}},
		},
	}}

	svc := NewDigestService(feed, lister)

	digests, err := svc.BuildDigests(context.Background())
	require.NoError(t, err)
	require.Len(t, digests, 1)
	require.Len(t, digests[0].Changes, 1)
	assert.Equal(t, "chase", digests[0].Changes[0].Offer.Product.Issuer.Slug)
}

func TestBuildDigestsFiltersByCurrency(t *testing.T) {
	feed := &mockChangeFeed{changes: []*models.OfferSnapshot{
		changeFor("chase", "UR"),
		changeFor("american-express", "MR"),
	}}

	currency := "MR"
	lister := &mockEligibleLister{subs: []*models.Subscriber{
		{
			Email:         "reader@example.com",
			EmailVerified: true,
			Preferences:   []models.SubscriberPreference{{CurrencyCode: &currency}},
		},
	}}

	svc := NewDigestService(feed, lister)

	digests, err := svc.BuildDigests(context.Background())
	require.NoError(t, err)
	require.Len(t, digests, 1)
	require.Len(t, digests[0].Changes, 1)
	assert.Equal(t, "MR", digests[0].Changes[0].Offer.Product.CurrencyCode)
}

func TestBuildDigestsSkipsEmptyDigests(t *testing.T) {
	feed := &mockChangeFeed{changes: []*models.OfferSnapshot{
		changeFor("chase", "UR"),
	}}

	issuer := "citi"
	lister := &mockEligibleLister{subs: []*models.Subscriber{
		{
			Email:         "reader@example.com",
			EmailVerified: true,
			Preferences:   []models.SubscriberPreference{{IssuerSlug: &issuer}},
		},
	}}

	svc := NewDigestService(feed, lister)

	digests, err := svc.BuildDigests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, digests)
}

func TestBuildDigestsCombinedScopeMustMatchBoth(t *testing.T) {
	feed := &mockChangeFeed{changes: []*models.OfferSnapshot{
		changeFor("chase", "UR"),
		changeFor("chase", "UA"),
	}}

	issuer := "chase"
	currency := "UR"
	lister := &mockEligibleLister{subs: []*models.Subscriber{
		{
			Email:         "reader@example.com",
			EmailVerified: true,
			Preferences: []models.SubscriberPreference{
				{IssuerSlug: &issuer, CurrencyCode: &currency},
			},
		},
	}}

	svc := NewDigestService(feed, lister)

	digests, err := svc.BuildDigests(context.Background())
	require.NoError(t, err)
	require.Len(t, digests, 1)
	require.Len(t, digests[0].Changes, 1)
	assert.Equal(t, "UR", digests[0].Changes[0].Offer.Product.CurrencyCode)
}
