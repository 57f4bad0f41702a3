package kafka

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/segmentio/kafka-go"
	"strconv"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// EventPublisher puts ledger envelopes on Kafka, keyed by correlation id so every
// event of one order or product lands on the same partition.
type EventPublisher struct{ P *Producer }

func (e *EventPublisher) Publish(ctx context.Context, topic string, env orders.Envelope) error {
	b, err := Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.EventType, err)
	}
	return e.P.Publish(ctx, kafka.Message{
		Topic: topic,
		Key:   orders.PartitionKey(env.CorrelationID),
		Value: b,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(env.EventType)},
			{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(env.EventVersion))},
		},
	})
}
