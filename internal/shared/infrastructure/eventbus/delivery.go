package eventbus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrPermanent marks a failure that redelivering the same message cannot fix.
var ErrPermanent = errors.New("permanent delivery failure")

// Permanent wraps err so transports drop or dead-letter the message instead of retrying it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// DecodeEvent turns a raw message body into a ConsumedEvent. Bodies that are
// already envelopes are used as-is; any other JSON document becomes the
// payload of a new event carrying routingKey.
func DecodeEvent(body []byte, routingKey string) (*ConsumedEvent, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, Permanent(errors.New("message body is not valid JSON"))
	}

	event := &ConsumedEvent{}
	if err := json.Unmarshal(body, event); err == nil && len(event.Payload) > 0 {
		if event.RoutingKey == "" {
			event.RoutingKey = routingKey
		}
		if event.EventID == uuid.Nil {
			event.EventID = uuid.New()
		}
		return event, nil
	}

	return &ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: time.Now().UTC(),
		Payload:    json.RawMessage(body),
	}, nil
}

// deliver decodes body and dispatches it through registry.
func deliver(ctx context.Context, registry *ConsumerRegistry, logger *slog.Logger, body []byte, routingKey string) error {
	event, err := DecodeEvent(body, routingKey)
	if err != nil {
		return err
	}
	if event.RoutingKey == "" {
		return Permanent(errors.New("message has no routing key"))
	}

	start := time.Now()
	err = registry.Dispatch(ctx, event)
	logger.Debug("event delivered",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
		"ok", err == nil,
	)
	return err
}
