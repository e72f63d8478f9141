package models

import (
	"time"

	"github.com/offer-tracker/internal/types"
)

// CardProduct represents a card product offered by an issuer
type CardProduct struct {
	ID           string            `json:"id" db:"id"`
	IssuerID     string            `json:"issuerId" db:"issuer_id"`
	Name         string            `json:"name" db:"name"`
	Slug         string            `json:"slug" db:"slug"`
	Network      types.CardNetwork `json:"network" db:"network"`
	Type         types.CardType    `json:"type" db:"type"`
	Currency     string            `json:"currency" db:"currency"`
	CurrencyCode string            `json:"currencyCode" db:"currency_code"`
	Description  *string           `json:"description,omitempty" db:"description"`
	OfferCount   int               `json:"offerCount" db:"offer_count"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time         `json:"updatedAt" db:"updated_at"`

	// Issuer is populated when the product is loaded with its owning issuer
	Issuer *Issuer `json:"issuer,omitempty" db:"-"`
}
