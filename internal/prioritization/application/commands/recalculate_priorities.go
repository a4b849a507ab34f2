package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// DefaultRecalcConcurrency bounds parallel re-scoring when none is configured.
const DefaultRecalcConcurrency = 8

// taskScorer is the part of ScoreTaskHandler the fan-out handlers need.
type taskScorer interface {
	Handle(ctx context.Context, cmd ScoreTaskCommand) (*ScoreTaskResult, error)
}

// RecalculatePrioritiesCommand re-scores unlocked tasks so time sensitivity
// tracks the clock.
type RecalculatePrioritiesCommand struct {
	Limit         int
	Actor         string
	CorrelationID string
}

func (RecalculatePrioritiesCommand) CommandName() string { return "prioritization.recalculate" }

// RecalculatePrioritiesResult describes the outcome of the scan.
type RecalculatePrioritiesResult struct {
	Scanned       int     `json:"scanned"`
	UpdatedCount  int     `json:"updated"`
	SkippedLocked int     `json:"skippedLocked"`
	Failed        int     `json:"failed"`
	AverageScore  float64 `json:"averageScore"`
	Escalations   int     `json:"escalations"`
}

// RecalculatePrioritiesHandler re-scores unlocked tasks in parallel.
type RecalculatePrioritiesHandler struct {
	repo        domain.ScoredTaskRepository
	scorer      taskScorer
	concurrency int
	metrics     observability.Metrics
	logger      *slog.Logger
}

// NewRecalculatePrioritiesHandler creates a new handler.
func NewRecalculatePrioritiesHandler(
	repo domain.ScoredTaskRepository,
	scorer *ScoreTaskHandler,
	concurrency int,
	metrics observability.Metrics,
	logger *slog.Logger,
) *RecalculatePrioritiesHandler {
	return newRecalculatePrioritiesHandler(repo, scorer, concurrency, metrics, logger)
}

func newRecalculatePrioritiesHandler(
	repo domain.ScoredTaskRepository,
	scorer taskScorer,
	concurrency int,
	metrics observability.Metrics,
	logger *slog.Logger,
) *RecalculatePrioritiesHandler {
	if concurrency <= 0 {
		concurrency = DefaultRecalcConcurrency
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecalculatePrioritiesHandler{
		repo:        repo,
		scorer:      scorer,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Handle executes the recalculation. Per-task failures are counted, not returned.
func (h *RecalculatePrioritiesHandler) Handle(ctx context.Context, cmd RecalculatePrioritiesCommand) (*RecalculatePrioritiesResult, error) {
	tasks, err := h.repo.ListUnlocked(ctx, cmd.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to recalc priorities: %w", err)
	}

	var (
		updated, skipped, failed, escalations atomic.Int64
		scoreSum                              atomic.Uint64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for _, task := range tasks {
		input := task.Input()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := h.scorer.Handle(gctx, ScoreTaskCommand{
				Input:         input,
				Actor:         actorOrSystem(cmd.Actor),
				CorrelationID: cmd.CorrelationID,
			})
			switch {
			case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
				return err
			case err != nil:
				failed.Add(1)
				h.logger.Warn("recalculation failed for task",
					slog.String("task_id", input.ID),
					slog.String("error", err.Error()),
				)
			case res.Locked:
				skipped.Add(1)
			default:
				updated.Add(1)
				addScore(&scoreSum, res.Result.PriorityMetrics.FinalPriorityScore)
				if res.Result.EscalationRecommended {
					escalations.Add(1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to recalc priorities: %w", err)
	}

	result := &RecalculatePrioritiesResult{
		Scanned:       len(tasks),
		UpdatedCount:  int(updated.Load()),
		SkippedLocked: int(skipped.Load()),
		Failed:        int(failed.Load()),
		Escalations:   int(escalations.Load()),
	}
	if result.UpdatedCount > 0 {
		result.AverageScore = float64(scoreSum.Load()) / 100 / float64(result.UpdatedCount)
	}

	h.metrics.Counter(observability.MetricTasksRecalculated, int64(result.UpdatedCount))
	h.metrics.Counter(observability.MetricTasksSkippedLocked, int64(result.SkippedLocked))
	h.logger.Info("priorities recalculated",
		slog.Int("scanned", result.Scanned),
		slog.Int("updated", result.UpdatedCount),
		slog.Int("skipped_locked", result.SkippedLocked),
		slog.Int("failed", result.Failed),
	)

	return result, nil
}

// addScore accumulates scores in hundredths; results are already rounded to two decimals.
func addScore(sum *atomic.Uint64, score float64) {
	sum.Add(uint64(score*100 + 0.5))
}
