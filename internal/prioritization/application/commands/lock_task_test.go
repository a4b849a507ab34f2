package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func storedTask(id string) *domain.ScoredTask {
	task := domain.NewScoredTask(testInput(id), testResult(id, 5, domain.UrgencyMedium, false))
	task.ClearDomainEvents()
	return task
}

func TestLockTaskHandler_Handle(t *testing.T) {
	t.Run("locks and evicts the cached result", func(t *testing.T) {
		repo := new(mockScoredTaskRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockResultCache)
		handler := NewLockTaskHandler(repo, outboxRepo, uow, cache)

		ctx := context.Background()
		txCtx := newTxContext(ctx)
		task := storedTask("req-1")

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "req-1").Return(task, nil)
		repo.On("Save", txCtx, task).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, messagesWithRoutingKeys(domain.RoutingKeyLocked)).Return(nil)
		uow.On("Commit", txCtx).Return(nil)
		cache.On("Delete", ctx, "req-1").Return(nil)

		err := handler.Handle(ctx, LockTaskCommand{TaskID: "req-1", Actor: "alice"})

		require.NoError(t, err)
		assert.True(t, task.IsLocked())
		assert.Equal(t, "locked by alice", task.LockReason())
		assert.Equal(t, "alice", task.LockedBy())
		repo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		uow.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("unknown task", func(t *testing.T) {
		repo := new(mockScoredTaskRepo)
		uow := new(mockUnitOfWork)
		handler := NewLockTaskHandler(repo, new(mockOutboxRepo), uow, nil)

		ctx := context.Background()
		txCtx := newTxContext(ctx)

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "missing").Return(nil, domain.ErrTaskNotFound)
		uow.On("Rollback", txCtx).Return(nil)

		err := handler.Handle(ctx, LockTaskCommand{TaskID: "missing"})

		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
		uow.AssertExpectations(t)
	})

	t.Run("begin failure", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		handler := NewLockTaskHandler(new(mockScoredTaskRepo), new(mockOutboxRepo), uow, nil)

		ctx := context.Background()
		uow.On("Begin", ctx).Return(ctx, errors.New("database connection error"))

		err := handler.Handle(ctx, LockTaskCommand{TaskID: "req-1"})
		assert.EqualError(t, err, "begin transaction: database connection error")
	})
}

func TestUnlockTaskHandler_Handle(t *testing.T) {
	t.Run("unlocks a locked task", func(t *testing.T) {
		repo := new(mockScoredTaskRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewUnlockTaskHandler(repo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := newTxContext(ctx)
		task := storedTask("req-2")
		task.Lock("hold", "bob")
		task.ClearDomainEvents()

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "req-2").Return(task, nil)
		repo.On("Save", txCtx, task).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, messagesWithRoutingKeys(domain.RoutingKeyUnlocked)).Return(nil)
		uow.On("Commit", txCtx).Return(nil)

		require.NoError(t, handler.Handle(ctx, UnlockTaskCommand{TaskID: "req-2", Actor: "bob"}))
		assert.False(t, task.IsLocked())
		repo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("unlocking an unlocked task fails", func(t *testing.T) {
		repo := new(mockScoredTaskRepo)
		uow := new(mockUnitOfWork)
		handler := NewUnlockTaskHandler(repo, new(mockOutboxRepo), uow)

		ctx := context.Background()
		txCtx := newTxContext(ctx)

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "req-3").Return(storedTask("req-3"), nil)
		uow.On("Rollback", txCtx).Return(nil)

		err := handler.Handle(ctx, UnlockTaskCommand{TaskID: "req-3"})
		assert.ErrorIs(t, err, domain.ErrNotLocked)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestOverrideTaskHandler_Handle(t *testing.T) {
	t.Run("manual priority and status", func(t *testing.T) {
		repo := new(mockScoredTaskRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		cache := new(mockResultCache)
		handler := NewOverrideTaskHandler(repo, outboxRepo, uow, cache)

		ctx := context.Background()
		txCtx := newTxContext(ctx)
		task := storedTask("req-4")
		manual := 8.5

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "req-4").Return(task, nil)
		repo.On("Save", txCtx, task).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, messagesWithRoutingKeys(domain.RoutingKeyLocked)).Return(nil)
		uow.On("Commit", txCtx).Return(nil)
		cache.On("Delete", ctx, "req-4").Return(nil)

		err := handler.Handle(ctx, OverrideTaskCommand{
			TaskID:         "req-4",
			ManualPriority: &manual,
			Status:         "in_progress",
			Reason:         "board decision",
			Actor:          "carol",
		})

		require.NoError(t, err)
		assert.Equal(t, 8.5, task.EffectivePriority())
		assert.Equal(t, domain.StatusInProgress, task.Status())
		assert.Equal(t, "board decision", task.LockReason())
		cache.AssertExpectations(t)
	})

	t.Run("invalid status is rejected before the transaction", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		handler := NewOverrideTaskHandler(new(mockScoredTaskRepo), new(mockOutboxRepo), uow, nil)

		err := handler.Handle(context.Background(), OverrideTaskCommand{TaskID: "req-5", Status: "blocked"})

		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("out of range priority rolls back", func(t *testing.T) {
		repo := new(mockScoredTaskRepo)
		uow := new(mockUnitOfWork)
		handler := NewOverrideTaskHandler(repo, new(mockOutboxRepo), uow, nil)

		ctx := context.Background()
		txCtx := newTxContext(ctx)
		bad := 12.0

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "req-6").Return(storedTask("req-6"), nil)
		uow.On("Rollback", txCtx).Return(nil)

		err := handler.Handle(ctx, OverrideTaskCommand{TaskID: "req-6", ManualPriority: &bad})

		assert.ErrorIs(t, err, domain.ErrInvalidManualPriority)
		uow.AssertExpectations(t)
	})
}
