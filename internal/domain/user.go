package domain

import (
	"context"
	"time"
)

type ContextKey string

const UserContextKey ContextKey = "user"

// User is the authenticated caller, built from token claims.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Address struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Label  string `json:"label"` // "Home", "Office"

	// Contact Info
	ContactEmail string `json:"contactEmail"`
	Phone        string `json:"phone"`

	// Recipient
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Location
	AddressLine string `json:"addressLine"`
	Landmark    string `json:"landmark"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`

	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

type AddressRepository interface {
	// GetDefaultAddress returns nil, nil when the customer has no default.
	GetDefaultAddress(ctx context.Context, userID string) (*Address, error)
}
