package ledger

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-inventory-ledger/internal/orders"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type traceKey struct{}

// WithTraceID attaches a trace id (usually the HTTP request id) that is copied onto emitted events.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}

// emit runs after commit. Publish failures are logged, never returned.
func (l *Ledger) emit(ctx context.Context, eventType, correlationID string, payload any) {
	topic, ok := orders.TopicFor(eventType)
	if !ok {
		l.log.Error("no topic for event", zap.String("event_type", eventType))
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		l.log.Error("encode event payload", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  orders.EnvelopeVersion,
		OccurredAt:    l.now(),
		Producer:      l.producer,
		TraceID:       traceID(ctx),
		CorrelationID: correlationID,
		Payload:       body,
	}
	if err := l.publisher.Publish(ctx, topic, env); err != nil {
		l.log.Warn("publish event",
			zap.String("event_type", eventType),
			zap.String("correlation_id", correlationID),
			zap.Error(err))
	}
}
