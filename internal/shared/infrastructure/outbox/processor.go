package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	PublishTimeout   time.Duration
	// Metrics receives publish outcomes. Nil disables reporting.
	Metrics observability.Metrics
}

// DefaultProcessorConfig returns the worker defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     500 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		PublishTimeout:   5 * time.Second,
	}
}

// Stats is a snapshot of processor activity.
type Stats struct {
	Published   uint64     `json:"published"`
	Failed      uint64     `json:"failed"`
	Dead        uint64     `json:"dead"`
	Pending     int        `json:"pending"`
	LagSeconds  float64    `json:"lagSeconds"`
	LastError   string     `json:"lastError,omitempty"`
	LastErrorAt *time.Time `json:"lastErrorAt,omitempty"`
	LastPollAt  *time.Time `json:"lastPollAt,omitempty"`
}

// Processor drains the outbox into a Publisher. Failed messages are retried
// with exponential backoff and dead-lettered after MaxRetries attempts.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	cfg       ProcessorConfig
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	stats Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	defaults := DefaultProcessorConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled. It always returns nil on cancellation.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("outbox processor started",
		"poll_interval", p.cfg.PollInterval,
		"batch_size", p.cfg.BatchSize,
	)
	defer p.logger.Info("outbox processor stopped")

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

// ProcessOnce publishes one batch and returns how many messages went out.
func (p *Processor) ProcessOnce(ctx context.Context) (int, error) {
	messages, err := p.repo.GetUnpublished(ctx, p.cfg.BatchSize)
	if err != nil {
		p.recordError(err)
		return 0, err
	}
	p.recordPoll(messages)
	p.cfg.Metrics.Gauge(observability.MetricOutboxPending, float64(len(messages)))

	published := 0
	for _, msg := range messages {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		if err := p.publish(ctx, msg); err != nil {
			p.handleFailure(ctx, msg, err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("failed to mark message as published", "id", msg.ID, "error", err)
			continue
		}
		published++
		p.mu.Lock()
		p.stats.Published++
		p.mu.Unlock()
		p.cfg.Metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", msg.RoutingKey))
	}
	return published, nil
}

func (p *Processor) publish(ctx context.Context, msg *Message) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()
	return p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
}

func (p *Processor) handleFailure(ctx context.Context, msg *Message, err error) {
	meta := msg.EventMetadata()
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"correlation_id", meta.CorrelationID,
		"actor", meta.Actor,
		"attempt", msg.RetryCount+1,
		"error", err,
	)
	p.recordError(err)

	if msg.FinalAttempt(p.cfg.MaxRetries) {
		p.mu.Lock()
		p.stats.Dead++
		p.mu.Unlock()
		p.cfg.Metrics.Counter(observability.MetricOutboxDead, 1, observability.T("routing_key", msg.RoutingKey))
		if markErr := p.repo.MarkDead(ctx, msg.ID, err.Error()); markErr != nil {
			p.logger.Error("failed to dead-letter message", "id", msg.ID, "error", markErr)
		}
		return
	}

	p.mu.Lock()
	p.stats.Failed++
	p.mu.Unlock()
	next := p.now().Add(RetryBackoff(p.cfg.RetryBackoffBase, p.cfg.RetryBackoffMax, msg.RetryCount+1))
	if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), next); markErr != nil {
		p.logger.Error("failed to mark message as failed", "id", msg.ID, "error", markErr)
	}
}

// Cleanup deletes published messages older than retentionDays.
func (p *Processor) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	deleted, err := p.repo.DeleteOld(ctx, retentionDays)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.logger.Info("outbox cleanup", "deleted", deleted, "retention_days", retentionDays)
	}
	return deleted, nil
}

// Stats returns a snapshot of processor activity.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// RetryBackoff doubles base for every attempt after the first, capped at limit.
func RetryBackoff(base, limit time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if limit <= 0 {
		limit = time.Minute
	}
	if attempt < 1 {
		attempt = 1
	}
	shift := uint(min(attempt-1, 30)) // #nosec G115 - attempt >= 1
	if backoff := base << shift; backoff > 0 && backoff < limit {
		return backoff
	}
	return limit
}

func (p *Processor) recordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

func (p *Processor) recordPoll(messages []*Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.stats.LastPollAt = &now
	p.stats.Pending = len(messages)
	p.stats.LagSeconds = 0
	for _, msg := range messages {
		if lag := now.Sub(msg.CreatedAt).Seconds(); lag > p.stats.LagSeconds {
			p.stats.LagSeconds = lag
		}
	}
}
