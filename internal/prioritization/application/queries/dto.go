package queries

import (
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

// ScoredTaskDTO is the read model of a persisted task.
type ScoredTaskDTO struct {
	TaskID            string                `json:"taskId"`
	Title             string                `json:"title"`
	Category          string                `json:"category"`
	RequesterRole     string                `json:"requesterRole"`
	Status            string                `json:"status"`
	Locked            bool                  `json:"locked"`
	LockReason        string                `json:"lockReason,omitempty"`
	LockedBy          string                `json:"lockedBy,omitempty"`
	LockedAt          *time.Time            `json:"lockedAt,omitempty"`
	ManualPriority    *float64              `json:"manualPriority,omitempty"`
	EffectivePriority float64               `json:"effectivePriority"`
	ScoreCount        int                   `json:"scoreCount"`
	DueAt             time.Time             `json:"dueAt"`
	Result            domain.PriorityResult `json:"result"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

func toScoredTaskDTO(task *domain.ScoredTask) ScoredTaskDTO {
	input := task.Input()
	return ScoredTaskDTO{
		TaskID:            task.TaskID(),
		Title:             input.Title,
		Category:          input.Category.String(),
		RequesterRole:     input.RequesterRole.String(),
		Status:            string(task.Status()),
		Locked:            task.IsLocked(),
		LockReason:        task.LockReason(),
		LockedBy:          task.LockedBy(),
		LockedAt:          task.LockedAt(),
		ManualPriority:    task.ManualPriority(),
		EffectivePriority: task.EffectivePriority(),
		ScoreCount:        task.ScoreCount(),
		DueAt:             task.DueAt(),
		Result:            task.Result(),
		CreatedAt:         task.CreatedAt(),
		UpdatedAt:         task.UpdatedAt(),
	}
}

func toScoredTaskDTOs(tasks []*domain.ScoredTask) []ScoredTaskDTO {
	dtos := make([]ScoredTaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = toScoredTaskDTO(t)
	}
	return dtos
}
