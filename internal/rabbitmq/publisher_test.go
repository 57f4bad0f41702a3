package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	out []sent
	err error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.out = append(f.out, sent{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublishRoutesByTopic(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "ledger.events"}
	env := orders.Envelope{
		EventID:       "e-7",
		EventType:     orders.EventOrderCancelled,
		EventVersion:  1,
		OccurredAt:    time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		Producer:      "inventory-ledger",
		CorrelationID: "o-3",
		Payload:       json.RawMessage(`{"order_id":"o-3"}`),
	}

	require.NoError(t, p.Publish(context.Background(), orders.TopicOrderCancelled, env))
	require.Len(t, ch.out, 1)
	got := ch.out[0]
	assert.Equal(t, "ledger.events", got.exchange)
	assert.Equal(t, orders.TopicOrderCancelled, got.key)
	assert.Equal(t, "e-7", got.msg.MessageId)
	assert.Equal(t, "o-3", got.msg.CorrelationId)
	assert.Equal(t, orders.EventOrderCancelled, got.msg.Type)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var decoded orders.Envelope
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)
}

func TestPublishErrors(t *testing.T) {
	p := &Publisher{ch: &fakeChannel{err: errors.New("channel closed")}, exchange: "x"}
	err := p.Publish(context.Background(), "t", orders.Envelope{EventType: orders.EventProductDeleted})
	assert.ErrorContains(t, err, "channel closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, (&Publisher{ch: &fakeChannel{}}).Publish(ctx, "t", orders.Envelope{}), context.Canceled)
}
