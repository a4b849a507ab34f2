package queries

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
)

// ListScoredTasksQuery contains the history filters. Empty strings mean "any".
type ListScoredTasksQuery struct {
	Category string
	Urgency  string
	Role     string
	Locked   string // "true", "false" or empty
	Limit    int
	Offset   int
}

func (ListScoredTasksQuery) QueryName() string { return "prioritization.list_tasks" }

// Filter converts the raw query into a repository filter.
func (q ListScoredTasksQuery) Filter() (domain.ListFilter, error) {
	filter := domain.ListFilter{Limit: q.Limit, Offset: q.Offset}

	if q.Category != "" {
		filter.Category = domain.ParseCategory(q.Category)
	}
	if q.Role != "" {
		filter.Role = domain.ParseRole(q.Role)
	}
	if q.Urgency != "" {
		level, err := domain.ParseUrgencyLevel(q.Urgency)
		if err != nil {
			return filter, &domain.ValidationError{Fields: []domain.FieldError{{Field: "urgency", Reason: err.Error()}}}
		}
		filter.UrgencyLevel = level
	}
	if q.Locked != "" {
		locked, err := strconv.ParseBool(strings.TrimSpace(q.Locked))
		if err != nil {
			return filter, &domain.ValidationError{Fields: []domain.FieldError{{
				Field:  "locked",
				Reason: fmt.Sprintf("%q is not a boolean", q.Locked),
			}}}
		}
		filter.Locked = &locked
	}
	if q.Limit < 0 || q.Offset < 0 {
		return filter, &domain.ValidationError{Fields: []domain.FieldError{{Field: "limit", Reason: "must not be negative"}}}
	}

	return filter, nil
}

// ListScoredTasksHandler handles the ListScoredTasksQuery.
type ListScoredTasksHandler struct {
	repo domain.ScoredTaskRepository
}

var _ sharedApplication.QueryHandler[ListScoredTasksQuery, []ScoredTaskDTO] = (*ListScoredTasksHandler)(nil)

// NewListScoredTasksHandler creates a new ListScoredTasksHandler.
func NewListScoredTasksHandler(repo domain.ScoredTaskRepository) *ListScoredTasksHandler {
	return &ListScoredTasksHandler{repo: repo}
}

// Handle executes the ListScoredTasksQuery.
func (h *ListScoredTasksHandler) Handle(ctx context.Context, q ListScoredTasksQuery) ([]ScoredTaskDTO, error) {
	filter, err := q.Filter()
	if err != nil {
		return nil, err
	}

	tasks, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toScoredTaskDTOs(tasks), nil
}
