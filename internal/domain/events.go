package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced   = "order.placed"
	EventOrderCanceled = "order.canceled"
)

type OrderEvent struct {
	Type        string          `json:"type"`
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

func NewOrderEvent(eventType string, o *Order) OrderEvent {
	return OrderEvent{
		Type:        eventType,
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

// EventPublisher delivers order lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}
