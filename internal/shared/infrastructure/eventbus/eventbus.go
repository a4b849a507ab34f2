// Package eventbus moves prioritization events between the service and the
// message brokers. Outbound traffic goes through a Publisher fed by the
// outbox processor. Inbound intake arrives on a Consumer that decodes the
// envelope and hands it to the EventConsumers registered for its routing key.
// RabbitMQ and Kafka implement both sides.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Publisher sends one serialized outbox payload under routingKey.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// Consumer reads from a broker until ctx ends.
type Consumer interface {
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}

// EventConsumer is an application-side handler. Returning an error wrapped
// with Permanent dead-letters the message; any other error asks for
// redelivery.
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope decoded from an inbound message. It mirrors
// what the outbox writes, so services can consume each other's events.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

type EventMetadata struct {
	Actor         string `json:"actor,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}
