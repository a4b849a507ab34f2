package queries

import (
	"context"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
)

// GetScoredTaskQuery retrieves the full stored record of one task.
type GetScoredTaskQuery struct {
	TaskID string
}

func (GetScoredTaskQuery) QueryName() string { return "prioritization.get_task" }

// GetScoredTaskHandler handles the GetScoredTaskQuery.
type GetScoredTaskHandler struct {
	repo domain.ScoredTaskRepository
}

var _ sharedApplication.QueryHandler[GetScoredTaskQuery, *ScoredTaskDTO] = (*GetScoredTaskHandler)(nil)

// NewGetScoredTaskHandler creates a new GetScoredTaskHandler.
func NewGetScoredTaskHandler(repo domain.ScoredTaskRepository) *GetScoredTaskHandler {
	return &GetScoredTaskHandler{repo: repo}
}

// Handle executes the GetScoredTaskQuery.
func (h *GetScoredTaskHandler) Handle(ctx context.Context, q GetScoredTaskQuery) (*ScoredTaskDTO, error) {
	task, err := h.repo.FindByID(ctx, q.TaskID)
	if err != nil {
		return nil, err
	}
	dto := toScoredTaskDTO(task)
	return &dto, nil
}
