package models

import (
	"time"
)

// Subscriber represents an email subscriber to offer digests
type Subscriber struct {
	ID                string     `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	EmailVerified     bool       `json:"emailVerified" db:"email_verified"`
	VerificationToken *string    `json:"-" db:"verification_token"`
	UnsubscribeToken  string     `json:"-" db:"unsubscribe_token"`
	UnsubscribedAt    *time.Time `json:"unsubscribedAt,omitempty" db:"unsubscribed_at"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`

	// Preferences is the owned preference set, replaced as a whole on update
	Preferences []SubscriberPreference `json:"preferences,omitempty" db:"-"`
}

// Eligible reports whether the subscriber may receive digest deliveries.
// Only verified subscribers who have not unsubscribed are eligible.
func (s *Subscriber) Eligible() bool {
	return s.EmailVerified && s.UnsubscribedAt == nil
}

// SubscriberPreference scopes a subscriber's digest to an issuer or currency.
// An empty scope value means "all".
type SubscriberPreference struct {
	ID           string  `json:"id" db:"id"`
	SubscriberID string  `json:"subscriberId" db:"subscriber_id"`
	IssuerSlug   *string `json:"issuerSlug,omitempty" db:"issuer_slug"`
	CurrencyCode *string `json:"currencyCode,omitempty" db:"currency_code"`
}
