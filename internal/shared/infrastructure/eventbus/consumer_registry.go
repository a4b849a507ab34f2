package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// ConsumerRegistry routes decoded events to the EventConsumers declared for
// their routing key. Both broker consumers share it.
type ConsumerRegistry struct {
	mu     sync.RWMutex
	byKey  map[string][]EventConsumer
	logger *slog.Logger
}

func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{byKey: map[string][]EventConsumer{}, logger: logger}
}

// Register subscribes consumer to each of its EventTypes.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		r.byKey[key] = append(r.byKey[key], consumer)
		r.logger.Debug("event consumer registered", "routing_key", key)
	}
}

// ConsumersFor returns the consumers subscribed to routingKey.
func (r *ConsumerRegistry) ConsumersFor(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byKey[routingKey])
}

// RoutingKeys lists every key with at least one consumer, sorted.
func (r *ConsumerRegistry) RoutingKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Dispatch runs every consumer of the event's routing key, even after one
// fails, and joins their errors. An unrouted event is dropped.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.ConsumersFor(event.RoutingKey)
	if len(consumers) == 0 {
		r.logger.Debug("no consumer for routing key", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, c := range consumers {
		err := c.Handle(ctx, event)
		if err == nil {
			continue
		}
		r.logger.Error("event consumer failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"permanent", IsPermanent(err),
			"error", err,
		)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
