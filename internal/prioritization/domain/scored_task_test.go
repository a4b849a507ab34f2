package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(score float64, level UrgencyLevel, escalate bool) PriorityResult {
	return PriorityResult{
		RequestID:             "req-1",
		UrgencyLevel:          level,
		PriorityMetrics:       PriorityMetrics{FinalPriorityScore: score},
		SuggestedSLAHours:     10,
		EscalationRecommended: escalate,
		ProcessedAt:           time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ContentMetrics:        ContentMetrics{EffortHours: 1.5},
	}
}

func TestNewScoredTask(t *testing.T) {
	t.Run("emits scored event", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(5.2, UrgencyMedium, false))

		assert.Equal(t, AggregateIDFor("req-1"), task.ID())
		assert.Equal(t, StatusPending, task.Status())
		assert.Equal(t, 1, task.ScoreCount())
		require.Len(t, task.DomainEvents(), 1)
		assert.Equal(t, RoutingKeyScored, task.DomainEvents()[0].RoutingKey())
	})

	t.Run("emits escalation event when recommended", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(8.4, UrgencyCritical, true))

		require.Len(t, task.DomainEvents(), 2)
		assert.Equal(t, RoutingKeyEscalated, task.DomainEvents()[1].RoutingKey())
	})

	t.Run("derived columns", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(5.2, UrgencyMedium, false))

		assert.Equal(t, 90, task.EstimatedMinutes())
		assert.Equal(t, task.Result().ProcessedAt.Add(10*time.Hour), task.DueAt())
	})
}

func TestScoredTask_Lock(t *testing.T) {
	t.Run("locked task refuses new results", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(5.2, UrgencyMedium, false))
		task.Lock("agreed with requester", "alice")

		err := task.ApplyResult(validInput(), sampleResult(9, UrgencyCritical, true))
		assert.ErrorIs(t, err, ErrTaskLocked)
		assert.Equal(t, UrgencyMedium, task.UrgencyLevel())
		assert.Equal(t, 1, task.ScoreCount())
	})

	t.Run("unlock clears manual priority", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(5.2, UrgencyMedium, false))
		manual := 9.5
		require.NoError(t, task.Override(&manual, nil, "", "bob"))
		assert.True(t, task.IsLocked())
		assert.Equal(t, 9.5, task.EffectivePriority())
		assert.Equal(t, "manual override", task.LockReason())

		require.NoError(t, task.Unlock())
		assert.False(t, task.IsLocked())
		assert.Nil(t, task.ManualPriority())
		assert.Equal(t, 5.2, task.EffectivePriority())
	})

	t.Run("unlock of unlocked task fails", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(5.2, UrgencyMedium, false))
		assert.ErrorIs(t, task.Unlock(), ErrNotLocked)
	})

	t.Run("override validates priority range", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(5.2, UrgencyMedium, false))
		bad := 11.0
		assert.ErrorIs(t, task.Override(&bad, nil, "", "bob"), ErrInvalidManualPriority)
		assert.False(t, task.IsLocked())
	})

	t.Run("override sets status", func(t *testing.T) {
		task := NewScoredTask(validInput(), sampleResult(5.2, UrgencyMedium, false))
		status := StatusInProgress
		require.NoError(t, task.Override(nil, &status, "picked up", "carol"))
		assert.Equal(t, StatusInProgress, task.Status())
		assert.True(t, task.IsLocked())
	})
}

func TestParseTaskStatus(t *testing.T) {
	status, err := ParseTaskStatus("In_Progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)

	_, err = ParseTaskStatus("blocked")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
