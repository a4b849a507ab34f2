// Package persistence stores scored tasks and privacy audit entries in
// PostgreSQL or SQLite. Both drivers share the row mapping in this file.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// scoredTaskRow is the storage shape of a domain.ScoredTask.
type scoredTaskRow struct {
	TaskID         string
	Input          []byte
	Result         []byte
	Status         string
	Locked         bool
	LockReason     *string
	LockedBy       *string
	LockedAt       *time.Time
	ManualPriority *float64
	ScoreCount     int
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func newScoredTaskRow(task *domain.ScoredTask) (scoredTaskRow, error) {
	input, err := json.Marshal(task.Input())
	if err != nil {
		return scoredTaskRow{}, fmt.Errorf("marshal task input: %w", err)
	}
	result, err := json.Marshal(task.Result())
	if err != nil {
		return scoredTaskRow{}, fmt.Errorf("marshal priority result: %w", err)
	}

	return scoredTaskRow{
		TaskID:         task.TaskID(),
		Input:          input,
		Result:         result,
		Status:         string(task.Status()),
		Locked:         task.IsLocked(),
		LockReason:     optionalString(task.LockReason()),
		LockedBy:       optionalString(task.LockedBy()),
		LockedAt:       task.LockedAt(),
		ManualPriority: task.ManualPriority(),
		ScoreCount:     task.ScoreCount(),
		Version:        task.Version(),
		CreatedAt:      task.CreatedAt(),
		UpdatedAt:      task.UpdatedAt(),
	}, nil
}

func (r scoredTaskRow) toDomain() (*domain.ScoredTask, error) {
	var input domain.TaskInput
	if err := json.Unmarshal(r.Input, &input); err != nil {
		return nil, fmt.Errorf("decode task input %s: %w", r.TaskID, err)
	}
	var result domain.PriorityResult
	if err := json.Unmarshal(r.Result, &result); err != nil {
		return nil, fmt.Errorf("decode priority result %s: %w", r.TaskID, err)
	}

	return domain.RehydrateScoredTask(
		input,
		result,
		domain.TaskStatus(r.Status),
		r.Locked,
		derefString(r.LockReason),
		derefString(r.LockedBy),
		r.LockedAt,
		r.ManualPriority,
		r.ScoreCount,
		r.CreatedAt,
		r.UpdatedAt,
		r.Version,
	), nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
