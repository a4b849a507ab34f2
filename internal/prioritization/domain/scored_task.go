package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/prioritiai/internal/shared/domain"
	"github.com/google/uuid"
)

// TaskStatus is the board column a human has placed the task in.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusCancelled  TaskStatus = "cancelled"
)

var (
	ErrInvalidStatus         = errors.New("invalid task status")
	ErrInvalidManualPriority = errors.New("manual priority must be between 0 and 10")
)

// ParseTaskStatus converts a string into a TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusPending, StatusInProgress, StatusDone, StatusCancelled:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

// scoredTaskNamespace derives stable aggregate IDs from caller-assigned task IDs.
var scoredTaskNamespace = uuid.MustParse("6f1c1d7e-3b0a-4d55-9a52-2f5a0e8a9c11")

// AggregateIDFor returns the aggregate ID used for a caller-assigned task ID.
func AggregateIDFor(taskID string) uuid.UUID {
	return uuid.NewSHA1(scoredTaskNamespace, []byte(taskID))
}

// ScoredTask is the persisted record of a task and its latest priority result.
// The locked bit is owned here, not by the engine: a locked task keeps its result
// until a human unlocks it.
type ScoredTask struct {
	sharedDomain.BaseAggregateRoot
	input          TaskInput
	result         PriorityResult
	status         TaskStatus
	locked         bool
	lockReason     string
	lockedBy       string
	lockedAt       *time.Time
	manualPriority *float64
	scoreCount     int
}

// NewScoredTask creates a record from the first scoring of a task.
func NewScoredTask(input TaskInput, result PriorityResult) *ScoredTask {
	t := &ScoredTask{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(AggregateIDFor(input.ID)),
		status:            StatusPending,
	}
	t.record(input, result)
	return t
}

// RehydrateScoredTask rebuilds a record from storage without emitting events.
func RehydrateScoredTask(
	input TaskInput,
	result PriorityResult,
	status TaskStatus,
	locked bool,
	lockReason, lockedBy string,
	lockedAt *time.Time,
	manualPriority *float64,
	scoreCount int,
	createdAt, updatedAt time.Time,
	version int,
) *ScoredTask {
	return &ScoredTask{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(AggregateIDFor(input.ID), createdAt, updatedAt, version),
		input:             input,
		result:            result,
		status:            status,
		locked:            locked,
		lockReason:        lockReason,
		lockedBy:          lockedBy,
		lockedAt:          lockedAt,
		manualPriority:    manualPriority,
		scoreCount:        scoreCount,
	}
}

// ApplyResult stores a new scoring of the task. Locked tasks refuse it.
func (t *ScoredTask) ApplyResult(input TaskInput, result PriorityResult) error {
	if t.locked {
		return ErrTaskLocked
	}
	t.record(input, result)
	return nil
}

func (t *ScoredTask) record(input TaskInput, result PriorityResult) {
	t.input = input
	t.result = result
	t.scoreCount++
	events := []sharedDomain.DomainEvent{NewTaskScored(t.ID(), input.ID, result)}
	if result.EscalationRecommended {
		events = append(events, NewTaskEscalated(t.ID(), input, result))
	}
	t.Raise(events...)
}

// Lock suppresses automatic re-scoring.
func (t *ScoredTask) Lock(reason, by string) {
	now := time.Now().UTC()
	t.locked = true
	t.lockReason = reason
	t.lockedBy = by
	t.lockedAt = &now
	t.Raise(NewTaskLocked(t.ID(), t.input.ID, reason, by, t.manualPriority, string(t.status)))
}

// Unlock re-enables automatic re-scoring. The manual priority is cleared.
func (t *ScoredTask) Unlock() error {
	if !t.locked {
		return ErrNotLocked
	}
	t.locked = false
	t.lockReason = ""
	t.lockedBy = ""
	t.lockedAt = nil
	t.manualPriority = nil
	t.Raise(NewTaskUnlocked(t.ID(), t.input.ID))
	return nil
}

// Override records a human decision on priority and/or status and locks the task.
func (t *ScoredTask) Override(priority *float64, status *TaskStatus, reason, by string) error {
	if priority != nil && (*priority < 0 || *priority > 10) {
		return ErrInvalidManualPriority
	}
	if priority != nil {
		p := *priority
		t.manualPriority = &p
	}
	if status != nil {
		t.status = *status
	}
	if reason == "" {
		reason = "manual override"
	}
	t.Lock(reason, by)
	return nil
}

// EffectivePriority is the manual priority when set, otherwise the computed score.
func (t *ScoredTask) EffectivePriority() float64 {
	if t.manualPriority != nil {
		return *t.manualPriority
	}
	return t.result.PriorityMetrics.FinalPriorityScore
}

func (t *ScoredTask) TaskID() string             { return t.input.ID }
func (t *ScoredTask) Input() TaskInput           { return t.input }
func (t *ScoredTask) Result() PriorityResult     { return t.result }
func (t *ScoredTask) Status() TaskStatus         { return t.status }
func (t *ScoredTask) IsLocked() bool             { return t.locked }
func (t *ScoredTask) LockReason() string         { return t.lockReason }
func (t *ScoredTask) LockedBy() string           { return t.lockedBy }
func (t *ScoredTask) LockedAt() *time.Time       { return t.lockedAt }
func (t *ScoredTask) ManualPriority() *float64   { return t.manualPriority }
func (t *ScoredTask) ScoreCount() int            { return t.scoreCount }
func (t *ScoredTask) UrgencyLevel() UrgencyLevel { return t.result.UrgencyLevel }
func (t *ScoredTask) DueAt() time.Time           { return t.result.DueAt() }
func (t *ScoredTask) EstimatedMinutes() int      { return t.result.EstimatedMinutes() }
