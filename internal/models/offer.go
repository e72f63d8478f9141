package models

import (
	"time"

	"github.com/offer-tracker/internal/types"
	"github.com/shopspring/decimal"
)

// Offer represents a sign-up offer for a card product.
// Monetary fields use decimal to avoid floating-point drift in displayed values.
type Offer struct {
	ID                 string            `json:"id" db:"id"`
	ProductID          string            `json:"productId" db:"product_id"`
	Headline           string            `json:"headline" db:"headline"`
	BonusPoints        int64             `json:"bonusPoints" db:"bonus_points"`
	MinSpendAmount     decimal.Decimal   `json:"minSpendAmount" db:"min_spend_amount"`
	MinSpendWindowDays int               `json:"minSpendWindowDays" db:"min_spend_window_days"`
	AnnualFee          decimal.Decimal   `json:"annualFee" db:"annual_fee"`
	FirstYearWaived    bool              `json:"firstYearWaived" db:"first_year_waived"`
	StatementCredits   decimal.Decimal   `json:"statementCredits" db:"statement_credits"`
	LandingURL         string            `json:"landingUrl" db:"landing_url"`
	SourceType         types.SourceType  `json:"sourceType" db:"source_type"`
	Geo                string            `json:"geo" db:"geo"`
	Status             types.OfferStatus `json:"status" db:"status"`
	LastVerifiedAt     time.Time         `json:"lastVerifiedAt" db:"last_verified_at"`
	PublishedAt        *time.Time        `json:"publishedAt,omitempty" db:"published_at"`
	CreatedAt          time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time         `json:"updatedAt" db:"updated_at"`

	// Product is populated when the offer is loaded joined with product and issuer
	Product *CardProduct `json:"product,omitempty" db:"-"`

	// LatestSnapshot is populated on single-offer lookups
	LatestSnapshot *OfferSnapshot `json:"latestSnapshot,omitempty" db:"-"`
}
