package outbox

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository keeps outbox messages in process memory. It backs the
// development container and tests; nothing survives a restart.
type InMemoryRepository struct {
	mu       sync.Mutex
	messages []*Message
	nextID   int64
}

// NewInMemoryRepository creates a new in-memory outbox repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

func (r *InMemoryRepository) Save(ctx context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveLocked(msg)
	return nil
}

func (r *InMemoryRepository) saveLocked(msg *Message) {
	msg.ID = r.nextID
	r.nextID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, msg)
}

func (r *InMemoryRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		r.saveLocked(msg)
	}
	return nil
}

func (r *InMemoryRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*Message
	now := time.Now()
	for _, msg := range r.messages {
		if s := msg.State(); s == StatePublished || s == StateDead {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *InMemoryRepository) MarkPublished(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg := r.find(id); msg != nil {
		now := time.Now()
		msg.PublishedAt = &now
		msg.DeadLetteredAt = nil
	}
	return nil
}

func (r *InMemoryRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg := r.find(id); msg != nil {
		msg.RetryCount++
		msg.LastError = &errMsg
		msg.NextRetryAt = &nextRetryAt
	}
	return nil
}

func (r *InMemoryRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg := r.find(id); msg != nil {
		now := time.Now()
		msg.DeadLetteredAt = &now
		msg.DeadLetterReason = &reason
	}
	return nil
}

func (r *InMemoryRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*Message
	now := time.Now()
	for _, msg := range r.messages {
		if msg.PublishedAt != nil || msg.DeadLetteredAt != nil {
			continue
		}
		if msg.RetryCount == 0 || msg.RetryCount >= maxRetries {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *InMemoryRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	kept := r.messages[:0]
	var removed int64
	for _, msg := range r.messages {
		if msg.PublishedAt != nil && msg.PublishedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	r.messages = kept
	return removed, nil
}

// Messages returns a snapshot of every stored message.
func (r *InMemoryRepository) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *InMemoryRepository) find(id int64) *Message {
	for _, msg := range r.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}
