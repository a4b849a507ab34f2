package commands

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
)

// LockTaskCommand freezes a task's stored result against automatic re-scoring.
type LockTaskCommand struct {
	TaskID string
	Reason string
	Actor  string
}

func (LockTaskCommand) CommandName() string { return "prioritization.lock_task" }

// LockTaskHandler handles the LockTaskCommand.
type LockTaskHandler struct {
	repo       domain.ScoredTaskRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	cache      domain.ResultCache
}

// NewLockTaskHandler creates a new LockTaskHandler. cache may be nil.
func NewLockTaskHandler(repo domain.ScoredTaskRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, cache domain.ResultCache) *LockTaskHandler {
	return &LockTaskHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, cache: cache}
}

// Handle executes the LockTaskCommand. Locking an already locked task
// replaces the reason and actor.
func (h *LockTaskHandler) Handle(ctx context.Context, cmd LockTaskCommand) error {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		task, err := h.repo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		reason := strings.TrimSpace(cmd.Reason)
		if reason == "" {
			reason = "locked by " + actorOrSystem(cmd.Actor)
		}
		task.Lock(reason, actorOrSystem(cmd.Actor))

		return saveWithEvents(txCtx, h.repo, h.outboxRepo, task, sharedApplication.EventMetadataFor(actorOrSystem(cmd.Actor), ""))
	})
	if err != nil {
		return err
	}
	return evict(ctx, h.cache, cmd.TaskID)
}

// UnlockTaskCommand re-enables automatic re-scoring for a task.
type UnlockTaskCommand struct {
	TaskID string
	Actor  string
}

func (UnlockTaskCommand) CommandName() string { return "prioritization.unlock_task" }

// UnlockTaskHandler handles the UnlockTaskCommand.
type UnlockTaskHandler struct {
	repo       domain.ScoredTaskRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUnlockTaskHandler creates a new UnlockTaskHandler.
func NewUnlockTaskHandler(repo domain.ScoredTaskRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *UnlockTaskHandler {
	return &UnlockTaskHandler{repo: repo, outboxRepo: outboxRepo, uow: uow}
}

// Handle executes the UnlockTaskCommand.
func (h *UnlockTaskHandler) Handle(ctx context.Context, cmd UnlockTaskCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		task, err := h.repo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}
		if err := task.Unlock(); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.repo, h.outboxRepo, task, sharedApplication.EventMetadataFor(actorOrSystem(cmd.Actor), ""))
	})
}

// evict drops a cached result so status lookups fall through to the
// repository, which knows about locks and manual priorities.
func evict(ctx context.Context, cache domain.ResultCache, taskID string) error {
	if cache == nil {
		return nil
	}
	return cache.Delete(ctx, taskID)
}

var (
	_ sharedApplication.CommandHandler[LockTaskCommand]   = (*LockTaskHandler)(nil)
	_ sharedApplication.CommandHandler[UnlockTaskCommand] = (*UnlockTaskHandler)(nil)
)
