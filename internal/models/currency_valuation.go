package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyValuation holds the published cents-per-point rate for a reward currency
type CurrencyValuation struct {
	ID            string          `json:"id" db:"id"`
	CurrencyCode  string          `json:"currencyCode" db:"currency_code"`
	CentsPerPoint decimal.Decimal `json:"centsPerPoint" db:"cents_per_point"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}
