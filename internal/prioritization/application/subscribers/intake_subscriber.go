// Package subscribers turns intake events into prioritization commands.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
)

// Intake routing keys.
const (
	RoutingKeyTaskSubmitted        = "prioritization.task.submitted"
	RoutingKeyRecalculateRequested = "prioritization.recalculate.requested"
)

type scoreHandler interface {
	Handle(ctx context.Context, cmd commands.ScoreTaskCommand) (*commands.ScoreTaskResult, error)
}

type recalcHandler interface {
	Handle(ctx context.Context, cmd commands.RecalculatePrioritiesCommand) (*commands.RecalculatePrioritiesResult, error)
}

// RecalculateRequest is the payload of a recalculation request.
type RecalculateRequest struct {
	Limit int `json:"limit"`
}

// IntakeSubscriber scores submitted tasks and runs requested recalculations.
type IntakeSubscriber struct {
	score   scoreHandler
	recalc  recalcHandler
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewIntakeSubscriber creates a new intake subscriber. recalc may be nil.
func NewIntakeSubscriber(score scoreHandler, recalc recalcHandler, metrics observability.Metrics, logger *slog.Logger) *IntakeSubscriber {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeSubscriber{score: score, recalc: recalc, metrics: metrics, logger: logger}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *IntakeSubscriber) EventTypes() []string {
	keys := []string{RoutingKeyTaskSubmitted}
	if s.recalc != nil {
		keys = append(keys, RoutingKeyRecalculateRequested)
	}
	return keys
}

// Handle processes an intake event. Malformed or invalid payloads are
// permanent failures; storage errors are returned for redelivery.
func (s *IntakeSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if event.Metadata.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, event.Metadata.CorrelationID)
	}
	ctx, _ = observability.EnsureCorrelationID(ctx)

	var err error
	switch event.RoutingKey {
	case RoutingKeyTaskSubmitted:
		err = s.handleSubmitted(ctx, event)
	case RoutingKeyRecalculateRequested:
		err = s.handleRecalculate(ctx, event)
	default:
		s.logger.Warn("unknown event type", "routing_key", event.RoutingKey)
		return nil
	}

	outcome := "ok"
	switch {
	case eventbus.IsPermanent(err):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	s.metrics.Counter(observability.MetricIntakeMessages, 1,
		observability.T("routing_key", event.RoutingKey),
		observability.T("outcome", outcome),
	)
	return err
}

func (s *IntakeSubscriber) handleSubmitted(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var input domain.TaskInput
	if err := json.Unmarshal(event.Payload, &input); err != nil {
		return eventbus.Permanent(fmt.Errorf("decode task input: %w", err))
	}

	res, err := s.score.Handle(ctx, commands.ScoreTaskCommand{
		Input:         input,
		Actor:         event.Metadata.Actor,
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	})
	if domain.IsValidationError(err) {
		return eventbus.Permanent(err)
	}
	if err != nil {
		return err
	}

	s.logger.Info("intake task scored",
		"request_id", input.ID,
		"urgency_level", res.Result.UrgencyLevel,
		"final_score", res.Result.PriorityMetrics.FinalPriorityScore,
		"locked", res.Locked,
	)
	return nil
}

func (s *IntakeSubscriber) handleRecalculate(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var req RecalculateRequest
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &req); err != nil {
			return eventbus.Permanent(fmt.Errorf("decode recalculate request: %w", err))
		}
	}

	_, err := s.recalc.Handle(ctx, commands.RecalculatePrioritiesCommand{
		Limit:         req.Limit,
		Actor:         event.Metadata.Actor,
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	})
	return err
}
