package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferSnapshot is an append-only observation of an offer's terms at a point in
// time. Snapshots are never mutated or deleted after creation; they form the
// audit trail used for change detection.
type OfferSnapshot struct {
	ID                 string          `json:"id" db:"id"`
	OfferID            string          `json:"offerId" db:"offer_id"`
	BonusPoints        int64           `json:"bonusPoints" db:"bonus_points"`
	MinSpendAmount     decimal.Decimal `json:"minSpendAmount" db:"min_spend_amount"`
	MinSpendWindowDays int             `json:"minSpendWindowDays" db:"min_spend_window_days"`
	AnnualFee          decimal.Decimal `json:"annualFee" db:"annual_fee"`
	StatementCredits   decimal.Decimal `json:"statementCredits" db:"statement_credits"`
	ExpiresOn          *time.Time      `json:"expiresOn,omitempty" db:"expires_on"`
	LandingURL         string          `json:"landingUrl" db:"landing_url"`
	CapturedAt         time.Time       `json:"capturedAt" db:"captured_at"`
	// DiffSummary describes the deltas against the immediately preceding
	// snapshot for the same offer. Nil on the first observation.
	DiffSummary *string `json:"diffSummary,omitempty" db:"diff_summary"`

	// Offer is populated on the weekly-changes feed
	Offer *Offer `json:"offer,omitempty" db:"-"`
}
