package commands

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
)

// OverrideTaskCommand records a human decision on priority and/or status.
// The task is locked as a side effect.
type OverrideTaskCommand struct {
	TaskID         string
	ManualPriority *float64
	Status         string
	Reason         string
	Actor          string
}

func (OverrideTaskCommand) CommandName() string { return "prioritization.override_task" }

// OverrideTaskHandler handles the OverrideTaskCommand.
type OverrideTaskHandler struct {
	repo       domain.ScoredTaskRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	cache      domain.ResultCache
}

// NewOverrideTaskHandler creates a new OverrideTaskHandler. cache may be nil.
func NewOverrideTaskHandler(repo domain.ScoredTaskRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, cache domain.ResultCache) *OverrideTaskHandler {
	return &OverrideTaskHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, cache: cache}
}

// Handle executes the OverrideTaskCommand.
func (h *OverrideTaskHandler) Handle(ctx context.Context, cmd OverrideTaskCommand) error {
	var status *domain.TaskStatus
	if strings.TrimSpace(cmd.Status) != "" {
		parsed, err := domain.ParseTaskStatus(cmd.Status)
		if err != nil {
			return err
		}
		status = &parsed
	}

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		task, err := h.repo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}
		if err := task.Override(cmd.ManualPriority, status, strings.TrimSpace(cmd.Reason), actorOrSystem(cmd.Actor)); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.repo, h.outboxRepo, task, sharedApplication.EventMetadataFor(actorOrSystem(cmd.Actor), ""))
	})
	if err != nil {
		return err
	}
	return evict(ctx, h.cache, cmd.TaskID)
}

var _ sharedApplication.CommandHandler[OverrideTaskCommand] = (*OverrideTaskHandler)(nil)
