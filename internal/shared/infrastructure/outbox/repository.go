package outbox

import (
	"context"
	"time"
)

// Repository stores events awaiting publication. Save and SaveBatch join the
// unit of work in ctx so events commit with the state change that raised them.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns messages due for an attempt, oldest first. A
	// failed message becomes due again at its next_retry_at.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error

	// MarkDead parks a message that exhausted its retries.
	MarkDead(ctx context.Context, id int64, reason string) error

	// GetFailed lists messages that failed at least once and still have
	// attempts left.
	GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error)

	// DeleteOld removes published messages older than olderThanDays.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
