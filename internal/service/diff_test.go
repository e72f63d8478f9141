package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/offer-tracker/internal/models"
)

func snap(points int64, spend, fee, credits float64, window int, landing string, expires *time.Time) *models.OfferSnapshot {
	return &models.OfferSnapshot{
		BonusPoints:        points,
		MinSpendAmount:     decimal.NewFromFloat(spend),
		MinSpendWindowDays: window,
		AnnualFee:          decimal.NewFromFloat(fee),
		StatementCredits:   decimal.NewFromFloat(credits),
		LandingURL:         landing,
		ExpiresOn:          expires,
	}
}

func TestComputeDiffNoChanges(t *testing.T) {
	prev := snap(60000, 4000, 95, 0, 90, "https://x.test/a", nil)
	next := snap(60000, 4000, 95, 0, 90, "https://x.test/a", nil)

	assert.Empty(t, ComputeDiff(prev, next))
}

func TestComputeDiffBonusIncrease(t *testing.T) {
	prev := snap(60000, 4000, 95, 0, 90, "https://x.test/a", nil)
	next := snap(75000, 4000, 95, 0, 90, "https://x.test/a", nil)

	changes := ComputeDiff(prev, next)
	assert.Len(t, changes, 1)
	assert.Equal(t, "Bonus increased 60,000 → 75,000", RenderDiff(changes))
}

func TestComputeDiffMultipleFields(t *testing.T) {
	prev := snap(60000, 4000, 95, 0, 90, "https://x.test/a", nil)
	next := snap(50000, 3000, 0, 0, 90, "https://x.test/a", nil)

	changes := ComputeDiff(prev, next)
	assert.Len(t, changes, 3)
	assert.Equal(t,
		"Bonus decreased 60,000 → 50,000; min spend decreased $4,000 → $3,000; Annual fee decreased $95 → $0",
		RenderDiff(changes))
}

func TestComputeDiffBonusAndMinSpendIncrease(t *testing.T) {
	prev := snap(65000, 4000, 99, 0, 90, "https://x.test/a", nil)
	next := snap(75000, 5000, 99, 0, 90, "https://x.test/a", nil)

	changes := ComputeDiff(prev, next)
	assert.Equal(t,
		"Bonus increased 65,000 → 75,000; min spend increased $4,000 → $5,000",
		RenderDiff(changes))
}

func TestComputeDiffSpendWindowAndCredits(t *testing.T) {
	prev := snap(90000, 6000, 325, 120, 90, "https://x.test/a", nil)
	next := snap(90000, 6000, 325, 240, 180, "https://x.test/a", nil)

	changes := ComputeDiff(prev, next)
	assert.Len(t, changes, 2)
	assert.Equal(t,
		"Spend window increased 90 days → 180 days; Statement credits increased $120 → $240",
		RenderDiff(changes))
}

func TestComputeDiffExpiration(t *testing.T) {
	d := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
	prev := snap(60000, 4000, 95, 0, 90, "https://x.test/a", nil)
	next := snap(60000, 4000, 95, 0, 90, "https://x.test/a", &d)

	changes := ComputeDiff(prev, next)
	assert.Len(t, changes, 1)
	assert.Equal(t, "Expiration changed none → 2026-10-31", changes[0].String())
}

func TestComputeDiffLandingPage(t *testing.T) {
	prev := snap(60000, 4000, 95, 0, 90, "https://x.test/a", nil)
	next := snap(60000, 4000, 95, 0, 90, "https://x.test/b", nil)

	changes := ComputeDiff(prev, next)
	assert.Len(t, changes, 1)
	assert.Equal(t, "Landing page changed https://x.test/a → https://x.test/b", changes[0].String())
}

func TestFormatPoints(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{75000, "75,000"},
		{1234567, "1,234,567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPoints(tt.in))
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$95", formatMoney(decimal.NewFromInt(95)))
	assert.Equal(t, "$0", formatMoney(decimal.Zero))
	assert.Equal(t, "$95.50", formatMoney(decimal.NewFromFloat(95.5)))
	assert.Equal(t, "$4,000", formatMoney(decimal.NewFromInt(4000)))
}
