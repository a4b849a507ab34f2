package commands

import (
	"context"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/prioritiai/internal/shared/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
)

const systemActor = "system"

// saveWithEvents stores the task and its pending domain events in the same transaction.
func saveWithEvents(
	txCtx context.Context,
	repo domain.ScoredTaskRepository,
	outboxRepo outbox.Repository,
	task *domain.ScoredTask,
	metadata sharedDomain.EventMetadata,
) error {
	if err := repo.Save(txCtx, task); err != nil {
		return err
	}

	events := task.DomainEvents()
	sharedApplication.StampEvents(events, metadata)

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := outboxRepo.SaveBatch(txCtx, msgs); err != nil {
		return err
	}

	task.ClearDomainEvents()
	return nil
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return systemActor
	}
	return actor
}
