package outbox

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/shared/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// State is derived from the delivery columns of an outbox row.
type State string

const (
	StatePending   State = "pending"
	StateRetrying  State = "retrying"
	StatePublished State = "published"
	StateDead      State = "dead"
)

// Message is one row of the outbox table. Payload holds the full envelope
// that goes on the wire; Metadata keeps the correlation data queryable.
type Message struct {
	ID            int64     `db:"id"`
	EventID       uuid.UUID `db:"event_id"`
	AggregateType string    `db:"aggregate_type"`
	AggregateID   uuid.UUID `db:"aggregate_id"`
	// EventType equals RoutingKey for every event this service raises.
	EventType  string          `db:"event_type"`
	RoutingKey string          `db:"routing_key"`
	Payload    json.RawMessage `db:"payload"`
	Metadata   json.RawMessage `db:"metadata"`
	CreatedAt  time.Time       `db:"created_at"`

	PublishedAt      *time.Time `db:"published_at"`
	NextRetryAt      *time.Time `db:"next_retry_at"`
	RetryCount       int        `db:"retry_count"`
	LastError        *string    `db:"last_error"`
	DeadLetteredAt   *time.Time `db:"dead_lettered_at"`
	DeadLetterReason *string    `db:"dead_letter_reason"`
}

// NewMessage serializes event into an outbox row. The wire payload decodes
// as eventbus.ConsumedEvent with the event body under "payload".
func NewMessage(event domain.DomainEvent) (*Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	meta := event.Metadata()
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	wire, err := json.Marshal(eventbus.ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       body,
		Metadata:      wireMetadata(meta),
	})
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		Payload:       wire,
		Metadata:      metaJSON,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

func wireMetadata(meta domain.EventMetadata) eventbus.EventMetadata {
	str := func(id uuid.UUID) string {
		if id == uuid.Nil {
			return ""
		}
		return id.String()
	}
	return eventbus.EventMetadata{
		Actor:         meta.Actor,
		CorrelationID: str(meta.CorrelationID),
		CausationID:   str(meta.CausationID),
	}
}

func (m *Message) State() State {
	switch {
	case m.PublishedAt != nil:
		return StatePublished
	case m.DeadLetteredAt != nil:
		return StateDead
	case m.RetryCount > 0:
		return StateRetrying
	default:
		return StatePending
	}
}

// FinalAttempt reports whether one more failure exhausts maxRetries.
func (m *Message) FinalAttempt(maxRetries int) bool {
	return m.RetryCount+1 >= maxRetries
}

// EventMetadata decodes the stored metadata column. A missing or corrupt
// column yields the zero value.
func (m *Message) EventMetadata() domain.EventMetadata {
	var meta domain.EventMetadata
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return meta
}
