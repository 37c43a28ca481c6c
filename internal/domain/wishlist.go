package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Wishlist struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID string               `json:"customerId" bson:"customerId"`
	ProductIDs []primitive.ObjectID `json:"productIds" bson:"productIds"`
	CreatedAt  time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updatedAt"`
}

func (w *Wishlist) Contains(productID primitive.ObjectID) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

type WishlistRepository interface {
	// GetByCustomer returns nil, nil when the customer has no wishlist.
	GetByCustomer(ctx context.Context, customerID string) (*Wishlist, error)
	// AddProducts set-inserts ids, creating the wishlist if needed.
	AddProducts(ctx context.Context, customerID string, productIDs ...primitive.ObjectID) (*Wishlist, error)
	// RemoveProduct returns nil, nil when the customer has no wishlist.
	RemoveProduct(ctx context.Context, customerID string, productID primitive.ObjectID) (*Wishlist, error)
}
