//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func TestPublishToBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("nutrastore-test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	const topic = "order.events.test"
	writer := NewWriter(brokers, topic)
	writer.AllowAutoTopicCreation = true
	pub := NewOrderEventPublisher(writer, topic)
	t.Cleanup(func() { _ = pub.Close() })

	event := sampleEvent()
	require.Eventually(t, func() bool {
		return pub.Publish(ctx, event) == nil
	}, 30*time.Second, time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, Partition: 0, MaxWait: time.Second})
	t.Cleanup(func() { _ = reader.Close() })

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, event.OrderID, string(msg.Key))
	assert.Equal(t, event.Type, headerValue(msg, "event_type"))
}
