package kafka

import (
	"context"
	"fmt"
	"time"

	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// Producer is the part of *kafka.Writer the publisher needs.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// OrderEventPublisher writes order events keyed by order id, so every event
// for one order lands on the same partition.
type OrderEventPublisher struct {
	producer Producer
	topic    string
}

func NewOrderEventPublisher(producer Producer, topic string) *OrderEventPublisher {
	return &OrderEventPublisher{producer: producer, topic: topic}
}

func (p *OrderEventPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	headers := []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}}
	msg := kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   payload,
		Headers: InjectTraceHeaders(ctx, headers),
		Time:    event.OccurredAt,
	}

	if err := p.producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.topic, err)
	}
	logger.WithContext(ctx).Debug().Str("event", event.Type).Str("order_id", event.OrderID).Msg("kafka: event published")
	return nil
}

func (p *OrderEventPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher stands in when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	logger.WithContext(ctx).Info().
		Str("event", event.Type).
		Str("order_id", event.OrderID).
		Str("status", event.Status).
		Str("total", event.TotalAmount.StringFixed(2)).
		Msg("order event")
	return nil
}
