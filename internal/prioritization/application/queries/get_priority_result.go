package queries

import (
	"context"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
)

// GetPriorityResultQuery looks up the current result for a task.
type GetPriorityResultQuery struct {
	RequestID string
}

func (GetPriorityResultQuery) QueryName() string { return "prioritization.get_result" }

// PriorityStatus is what the status lookup returns.
type PriorityStatus struct {
	Result            domain.PriorityResult `json:"result"`
	FromCache         bool                  `json:"fromCache"`
	Locked            bool                  `json:"locked"`
	EffectivePriority float64               `json:"effectivePriority"`
}

// GetPriorityResultHandler reads the cache first and falls back to storage.
type GetPriorityResultHandler struct {
	repo   domain.ScoredTaskRepository
	cache  domain.ResultCache
	logger *slog.Logger
}

var _ sharedApplication.QueryHandler[GetPriorityResultQuery, *PriorityStatus] = (*GetPriorityResultHandler)(nil)

// NewGetPriorityResultHandler creates a new handler. cache may be nil.
func NewGetPriorityResultHandler(repo domain.ScoredTaskRepository, cache domain.ResultCache, logger *slog.Logger) *GetPriorityResultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetPriorityResultHandler{repo: repo, cache: cache, logger: logger}
}

// Handle executes the GetPriorityResultQuery.
func (h *GetPriorityResultHandler) Handle(ctx context.Context, q GetPriorityResultQuery) (*PriorityStatus, error) {
	if strings.TrimSpace(q.RequestID) == "" {
		return nil, domain.ErrTaskNotFound
	}

	if h.cache != nil {
		cached, err := h.cache.Get(ctx, q.RequestID)
		switch {
		case err != nil:
			h.logger.Warn("result cache read failed",
				slog.String("request_id", q.RequestID),
				slog.String("error", err.Error()),
			)
		case cached != nil:
			return &PriorityStatus{
				Result:            *cached,
				FromCache:         true,
				EffectivePriority: cached.PriorityMetrics.FinalPriorityScore,
			}, nil
		}
	}

	task, err := h.repo.FindByID(ctx, q.RequestID)
	if err != nil {
		return nil, err
	}

	// Locked or overridden results are never cached.
	if h.cache != nil && !task.IsLocked() && task.ManualPriority() == nil {
		if err := h.cache.Set(ctx, task.Result()); err != nil {
			h.logger.Warn("failed to cache priority result",
				slog.String("request_id", q.RequestID),
				slog.String("error", err.Error()),
			)
		}
	}

	return &PriorityStatus{
		Result:            task.Result(),
		Locked:            task.IsLocked(),
		EffectivePriority: task.EffectivePriority(),
	}, nil
}
