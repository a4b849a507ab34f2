package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
)

// Scorer produces a priority result for one task input.
type Scorer interface {
	Score(ctx context.Context, input domain.TaskInput) (domain.PriorityResult, error)
}

// ScoreTaskCommand asks for a task to be scored and the result stored.
type ScoreTaskCommand struct {
	Input         domain.TaskInput
	Actor         string
	CorrelationID string
}

func (ScoreTaskCommand) CommandName() string { return "prioritization.score_task" }

// ScoreTaskResult carries the result that is now on record for the task.
// When Locked is true the stored result was kept and no scoring happened.
type ScoreTaskResult struct {
	Result            domain.PriorityResult
	Locked            bool
	EffectivePriority float64
	ScoreCount        int
}

// ScoreTaskHandler scores a task and records the outcome. Locked tasks keep
// their stored result.
type ScoreTaskHandler struct {
	scorer     Scorer
	repo       domain.ScoredTaskRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	cache      domain.ResultCache
	audit      domain.PrivacyAuditRepository
	logger     *slog.Logger
}

// NewScoreTaskHandler creates a new ScoreTaskHandler. cache and audit may be nil.
func NewScoreTaskHandler(
	scorer Scorer,
	repo domain.ScoredTaskRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	cache domain.ResultCache,
	audit domain.PrivacyAuditRepository,
	logger *slog.Logger,
) *ScoreTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreTaskHandler{
		scorer:     scorer,
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		cache:      cache,
		audit:      audit,
		logger:     logger,
	}
}

// Handle executes the ScoreTaskCommand.
func (h *ScoreTaskHandler) Handle(ctx context.Context, cmd ScoreTaskCommand) (*ScoreTaskResult, error) {
	existing, err := h.repo.FindByID(ctx, cmd.Input.ID)
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}
	if err == nil && existing.IsLocked() {
		return lockedResult(existing), nil
	}

	result, err := h.scorer.Score(ctx, cmd.Input)
	if err != nil {
		return nil, err
	}

	var out *ScoreTaskResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		task, err := h.repo.FindByID(txCtx, cmd.Input.ID)
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			task = domain.NewScoredTask(cmd.Input, result)
		case err != nil:
			return err
		default:
			if err := task.ApplyResult(cmd.Input, result); err != nil {
				if errors.Is(err, domain.ErrTaskLocked) {
					out = lockedResult(task)
					return nil
				}
				return err
			}
		}

		metadata := sharedApplication.EventMetadataFor(actorOrSystem(cmd.Actor), cmd.CorrelationID)
		if err := saveWithEvents(txCtx, h.repo, h.outboxRepo, task, metadata); err != nil {
			return err
		}

		if result.SensitiveDataDetected && h.audit != nil {
			entry := &domain.PrivacyAuditEntry{
				RequestID:  cmd.Input.ID,
				Categories: result.PrivacyCategories,
				DetectedAt: result.ProcessedAt,
			}
			if err := h.audit.Record(txCtx, entry); err != nil {
				return err
			}
		}

		out = &ScoreTaskResult{
			Result:            task.Result(),
			EffectivePriority: task.EffectivePriority(),
			ScoreCount:        task.ScoreCount(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !out.Locked && h.cache != nil {
		if err := h.cache.Set(ctx, out.Result); err != nil {
			h.logger.Warn("failed to cache priority result",
				slog.String("request_id", cmd.Input.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return out, nil
}

func lockedResult(task *domain.ScoredTask) *ScoreTaskResult {
	return &ScoreTaskResult{
		Result:            task.Result(),
		Locked:            true,
		EffectivePriority: task.EffectivePriority(),
		ScoreCount:        task.ScoreCount(),
	}
}

var _ sharedApplication.ResultCommandHandler[ScoreTaskCommand, *ScoreTaskResult] = (*ScoreTaskHandler)(nil)
