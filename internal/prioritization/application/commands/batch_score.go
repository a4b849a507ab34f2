package commands

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize caps how many inputs one batch may carry.
const MaxBatchSize = 100

// BatchScoreCommand scores several independent task inputs.
type BatchScoreCommand struct {
	Inputs        []domain.TaskInput
	Actor         string
	CorrelationID string
}

func (BatchScoreCommand) CommandName() string { return "prioritization.batch_score" }

// BatchItem is the outcome for one input, in request order.
type BatchItem struct {
	Index  int
	TaskID string
	Result *ScoreTaskResult
	Err    error
}

// BatchScoreResult holds one item per input.
type BatchScoreResult struct {
	Items     []BatchItem
	Succeeded int
	Failed    int
}

// BatchScoreHandler scores inputs in parallel. One failing input never
// fails the batch.
type BatchScoreHandler struct {
	scorer      taskScorer
	concurrency int
	logger      *slog.Logger
}

// NewBatchScoreHandler creates a new BatchScoreHandler.
func NewBatchScoreHandler(scorer *ScoreTaskHandler, concurrency int, logger *slog.Logger) *BatchScoreHandler {
	return newBatchScoreHandler(scorer, concurrency, logger)
}

func newBatchScoreHandler(scorer taskScorer, concurrency int, logger *slog.Logger) *BatchScoreHandler {
	if concurrency <= 0 {
		concurrency = DefaultRecalcConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchScoreHandler{scorer: scorer, concurrency: concurrency, logger: logger}
}

// Handle executes the BatchScoreCommand. Only context cancellation is returned as an error.
func (h *BatchScoreHandler) Handle(ctx context.Context, cmd BatchScoreCommand) (*BatchScoreResult, error) {
	if len(cmd.Inputs) > MaxBatchSize {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{
			Field:  "inputs",
			Reason: "batch exceeds maximum size",
		}}}
	}

	items := make([]BatchItem, len(cmd.Inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for i, input := range cmd.Inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := h.scorer.Handle(gctx, ScoreTaskCommand{
				Input:         input,
				Actor:         cmd.Actor,
				CorrelationID: cmd.CorrelationID,
			})
			items[i] = BatchItem{Index: i, TaskID: input.ID, Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &BatchScoreResult{Items: items}
	for _, item := range items {
		if item.Err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	h.logger.Debug("batch scored",
		slog.Int("size", len(items)),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}
