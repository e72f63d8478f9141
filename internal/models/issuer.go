// Package models provides data models for the offer tracker system.
package models

import (
	"time"
)

// Issuer represents a credit card issuing bank
type Issuer struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Website      string    `json:"website" db:"website"`
	ProductCount int       `json:"productCount" db:"product_count"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
