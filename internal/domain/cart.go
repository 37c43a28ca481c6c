package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Cart struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID string             `json:"customerId" bson:"customerId"`
	Items      []CartLine         `json:"items" bson:"items"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CartLine struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name,omitempty" bson:"name,omitempty"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	UnitPrice float64            `json:"unitPrice" bson:"unitPrice"` // snapshot at first add
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
}

// EmptyCart is what a customer without a cart document sees.
func EmptyCart(customerID string) *Cart {
	return &Cart{CustomerID: customerID, Items: []CartLine{}}
}

func (c *Cart) Line(productID primitive.ObjectID) (CartLine, bool) {
	for _, l := range c.Items {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

type CartRepository interface {
	// GetByCustomer returns nil, nil when the customer has no cart.
	GetByCustomer(ctx context.Context, customerID string) (*Cart, error)
	// AddQuantity atomically adds line.Quantity to the matching line, or
	// inserts line when the cart has none for that product.
	AddQuantity(ctx context.Context, customerID string, line CartLine) error
	// DecrementItem lowers the line by one and removes it when it would hit zero.
	DecrementItem(ctx context.Context, customerID string, productID primitive.ObjectID) error
	RemoveItem(ctx context.Context, customerID string, productID primitive.ObjectID) error
	Clear(ctx context.Context, customerID string) error
}
