package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ShipmentRequest struct {
	// ReferenceID is sent as the carrier-side order id so a replayed
	// request can be matched to the shipment it created.
	ReferenceID   string
	OrderDate     time.Time
	Address       Address
	Items         []OrderItem
	PaymentMethod string
	SubTotal      decimal.Decimal
}

type Shipment struct {
	OrderID    string `json:"orderId"`
	ShipmentID string `json:"shipmentId"`
	Status     string `json:"status"`
}

// CarrierResult is the carrier's own status and message, passed through as-is.
type CarrierResult struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// ShippingProvider creates and cancels shipments with the carrier.
// Failures are returned as ShippingProviderError or ShippingProviderTimeout.
type ShippingProvider interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error)
	CancelShipment(ctx context.Context, shipmentOrderID string) (*CarrierResult, error)
}
