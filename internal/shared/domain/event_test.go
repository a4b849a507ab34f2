package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	before := time.Now().UTC()

	event := domain.NewBaseEvent(aggregateID, "ScoredTask", "prioritization.task.scored")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "ScoredTask", event.AggregateType())
	assert.Equal(t, "prioritization.task.scored", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.Equal(t, domain.EventMetadata{}, event.Metadata())

	other := domain.NewBaseEvent(aggregateID, "ScoredTask", "prioritization.task.scored")
	assert.NotEqual(t, event.EventID(), other.EventID())
}

func TestBaseEvent_SetMetadata(t *testing.T) {
	event := domain.NewBaseEvent(uuid.New(), "ScoredTask", "prioritization.task.locked")
	meta := domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		Actor:         "cli",
	}

	event.SetMetadata(meta)

	assert.Equal(t, meta, event.Metadata())
}
