// Package types provides common type definitions for the offer tracker system.
package types

// OfferStatus represents the lifecycle state of an offer
type OfferStatus string

const (
	// StatusActive represents an offer that is currently available
	StatusActive OfferStatus = "ACTIVE"
	// StatusInactive represents an offer that has been pulled but may return
	StatusInactive OfferStatus = "INACTIVE"
	// StatusExpired represents an offer past its expiration date
	StatusExpired OfferStatus = "EXPIRED"
)

// IsValid reports whether the status is one of the known offer statuses
func (s OfferStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusExpired:
		return true
	}
	return false
}

// CardNetwork represents the payment network a card runs on
type CardNetwork string

const (
	// NetworkVisa represents the Visa network
	NetworkVisa CardNetwork = "VISA"
	// NetworkMastercard represents the Mastercard network
	NetworkMastercard CardNetwork = "MASTERCARD"
	// NetworkAmex represents the American Express network
	NetworkAmex CardNetwork = "AMEX"
	// NetworkDiscover represents the Discover network
	NetworkDiscover CardNetwork = "DISCOVER"
)

// CardType represents whether a card product is consumer or business
type CardType string

const (
	// TypePersonal represents a consumer card product
	TypePersonal CardType = "PERSONAL"
	// TypeBusiness represents a business card product
	TypeBusiness CardType = "BUSINESS"
)

// SourceType represents where an offer was observed
type SourceType string

const (
	// SourcePublic represents a publicly advertised offer
	SourcePublic SourceType = "PUBLIC"
	// SourceReferral represents a referral-link offer
	SourceReferral SourceType = "REFERRAL"
	// SourceTargeted represents a targeted mailer or in-account offer
	SourceTargeted SourceType = "TARGETED"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
