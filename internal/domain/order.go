package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// --- Order Entities ---

type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	ShipmentOrderID *string         `json:"shipmentOrderId"` // assigned by the carrier
	ShipmentID      *string         `json:"shipmentId"`
	IdempotencyKey  string          `json:"-"`
	Status          string          `json:"orderStatus"`
	PaymentStatus   string          `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is an immutable snapshot of a product at order time.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// HasShipment reports whether the carrier assigned an order id.
func (o *Order) HasShipment() bool {
	return o.ShipmentOrderID != nil && *o.ShipmentOrderID != ""
}

type OrderHistory struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	PreviousStatus *string   `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         *string   `json:"reason"`
	CreatedBy      *string   `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// --- Interfaces ---

type OrderRepository interface {
	// CreatePending inserts the order and its items with status pending.
	CreatePending(ctx context.Context, order *Order) error
	// MarkPlaced records the carrier ids and flips a pending order to placed.
	MarkPlaced(ctx context.Context, orderID, shipmentOrderID, shipmentID string) error
	// DiscardPending deletes an order that never left the pending state.
	DiscardPending(ctx context.Context, orderID string) error
	// GetByID and GetByIdempotencyKey return nil, nil when nothing matches.
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByIdempotencyKey(ctx context.Context, customerID, key string) (*Order, error)
	// ListByCustomer excludes pending orders.
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListPending(ctx context.Context, createdBefore time.Time) ([]Order, error)
	// UpdateStatus fails with InvalidState when the order is not in from.
	UpdateStatus(ctx context.Context, id, from, to string) error
	CreateOrderHistory(ctx context.Context, history *OrderHistory) error
}
