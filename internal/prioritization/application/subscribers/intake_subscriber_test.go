package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScoreHandler struct {
	mock.Mock
}

func (m *mockScoreHandler) Handle(ctx context.Context, cmd commands.ScoreTaskCommand) (*commands.ScoreTaskResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commands.ScoreTaskResult), args.Error(1)
}

type mockRecalcHandler struct {
	mock.Mock
}

func (m *mockRecalcHandler) Handle(ctx context.Context, cmd commands.RecalculatePrioritiesCommand) (*commands.RecalculatePrioritiesResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commands.RecalculatePrioritiesResult), args.Error(1)
}

func submittedEvent(t *testing.T, input domain.TaskInput) *eventbus.ConsumedEvent {
	t.Helper()
	payload, err := json.Marshal(input)
	require.NoError(t, err)
	return &eventbus.ConsumedEvent{
		RoutingKey: RoutingKeyTaskSubmitted,
		Payload:    payload,
		Metadata:   eventbus.EventMetadata{Actor: "helpdesk", CorrelationID: "corr-1"},
	}
}

func TestIntakeSubscriber_EventTypes(t *testing.T) {
	assert.Equal(t, []string{RoutingKeyTaskSubmitted}, NewIntakeSubscriber(new(mockScoreHandler), nil, nil, nil).EventTypes())
	assert.Equal(t,
		[]string{RoutingKeyTaskSubmitted, RoutingKeyRecalculateRequested},
		NewIntakeSubscriber(new(mockScoreHandler), new(mockRecalcHandler), nil, nil).EventTypes(),
	)
}

func TestIntakeSubscriber_Handle(t *testing.T) {
	input := domain.TaskInput{
		ID:            "HD-1001",
		Title:         "Email bounce for all external mail",
		Category:      domain.CategoryInfrastructure,
		RequesterRole: domain.RoleCEO,
		CreatedAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	t.Run("scores a submitted task", func(t *testing.T) {
		score := new(mockScoreHandler)
		metrics := observability.NewInMemoryMetrics()
		sub := NewIntakeSubscriber(score, nil, metrics, nil)

		score.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.ScoreTaskCommand) bool {
			return cmd.Input.ID == "HD-1001" && cmd.Actor == "helpdesk" && cmd.CorrelationID == "corr-1"
		})).Return(&commands.ScoreTaskResult{Result: domain.PriorityResult{RequestID: "HD-1001", UrgencyLevel: domain.UrgencyCritical}}, nil)

		require.NoError(t, sub.Handle(context.Background(), submittedEvent(t, input)))
		score.AssertExpectations(t)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricIntakeMessages,
			observability.T("routing_key", RoutingKeyTaskSubmitted), observability.T("outcome", "ok")))
	})

	t.Run("normalizes lower-case category and role", func(t *testing.T) {
		score := new(mockScoreHandler)
		sub := NewIntakeSubscriber(score, nil, nil, nil)
		score.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.ScoreTaskCommand) bool {
			return cmd.Input.Category == domain.CategorySecurity && cmd.Input.RequesterRole == domain.RoleCEO
		})).Return(&commands.ScoreTaskResult{Result: domain.PriorityResult{RequestID: "HD-1002"}}, nil)

		err := sub.Handle(context.Background(), &eventbus.ConsumedEvent{
			RoutingKey: RoutingKeyTaskSubmitted,
			Payload:    json.RawMessage(`{"id":"HD-1002","title":"Phishing mail","category":"security","requesterRole":"ceo","createdAt":"2026-03-02T09:00:00Z"}`),
		})

		require.NoError(t, err)
		score.AssertExpectations(t)
	})

	t.Run("validation failure is permanent", func(t *testing.T) {
		score := new(mockScoreHandler)
		sub := NewIntakeSubscriber(score, nil, nil, nil)
		verr := &domain.ValidationError{Fields: []domain.FieldError{{Field: "title", Reason: "must not be empty"}}}
		score.On("Handle", mock.Anything, mock.Anything).Return(nil, verr)

		err := sub.Handle(context.Background(), submittedEvent(t, input))

		assert.True(t, eventbus.IsPermanent(err))
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("storage failure is retried", func(t *testing.T) {
		score := new(mockScoreHandler)
		sub := NewIntakeSubscriber(score, nil, nil, nil)
		score.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))

		err := sub.Handle(context.Background(), submittedEvent(t, input))

		require.Error(t, err)
		assert.False(t, eventbus.IsPermanent(err))
	})

	t.Run("malformed payload is permanent", func(t *testing.T) {
		score := new(mockScoreHandler)
		sub := NewIntakeSubscriber(score, nil, nil, nil)

		err := sub.Handle(context.Background(), &eventbus.ConsumedEvent{
			RoutingKey: RoutingKeyTaskSubmitted,
			Payload:    json.RawMessage(`["not", "an", "object"]`),
		})

		assert.True(t, eventbus.IsPermanent(err))
		score.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("runs a requested recalculation", func(t *testing.T) {
		recalc := new(mockRecalcHandler)
		sub := NewIntakeSubscriber(new(mockScoreHandler), recalc, nil, nil)
		recalc.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.RecalculatePrioritiesCommand) bool {
			return cmd.Limit == 200 && cmd.Actor == "scheduler" && cmd.CorrelationID != ""
		})).Return(&commands.RecalculatePrioritiesResult{UpdatedCount: 3}, nil)

		err := sub.Handle(context.Background(), &eventbus.ConsumedEvent{
			RoutingKey: RoutingKeyRecalculateRequested,
			Payload:    json.RawMessage(`{"limit":200}`),
			Metadata:   eventbus.EventMetadata{Actor: "scheduler"},
		})

		require.NoError(t, err)
		recalc.AssertExpectations(t)
	})

	t.Run("ignores unknown keys", func(t *testing.T) {
		sub := NewIntakeSubscriber(new(mockScoreHandler), nil, nil, nil)
		assert.NoError(t, sub.Handle(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "something.else"}))
	})
}
