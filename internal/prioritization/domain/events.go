package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/prioritiai/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "ScoredTask"

	RoutingKeySubmitted = "prioritization.task.submitted"
	RoutingKeyScored    = "prioritization.task.scored"
	RoutingKeyEscalated = "prioritization.task.escalated"
	RoutingKeyLocked    = "prioritization.task.locked"
	RoutingKeyUnlocked  = "prioritization.task.unlocked"
	RoutingKeyRecalc    = "prioritization.recalculate"
)

// TaskScored is emitted every time a result is stored for a task.
type TaskScored struct {
	sharedDomain.BaseEvent
	TaskID                string       `json:"task_id"`
	UrgencyLevel          UrgencyLevel `json:"urgency_level"`
	FinalPriorityScore    float64      `json:"final_priority_score"`
	SuggestedSLAHours     float64      `json:"suggested_sla_hours"`
	EscalationRecommended bool         `json:"escalation_recommended"`
	DueAt                 time.Time    `json:"due_at"`
}

// NewTaskScored creates a TaskScored event.
func NewTaskScored(aggregateID uuid.UUID, taskID string, result PriorityResult) *TaskScored {
	return &TaskScored{
		BaseEvent:             sharedDomain.NewBaseEvent(aggregateID, AggregateType, RoutingKeyScored),
		TaskID:                taskID,
		UrgencyLevel:          result.UrgencyLevel,
		FinalPriorityScore:    result.PriorityMetrics.FinalPriorityScore,
		SuggestedSLAHours:     result.SuggestedSLAHours,
		EscalationRecommended: result.EscalationRecommended,
		DueAt:                 result.DueAt(),
	}
}

// TaskEscalated is emitted when a result recommends escalation.
type TaskEscalated struct {
	sharedDomain.BaseEvent
	TaskID        string       `json:"task_id"`
	UrgencyLevel  UrgencyLevel `json:"urgency_level"`
	Score         float64      `json:"score"`
	RequesterRole Role         `json:"requester_role"`
	Reasoning     string       `json:"reasoning"`
}

// NewTaskEscalated creates a TaskEscalated event.
func NewTaskEscalated(aggregateID uuid.UUID, input TaskInput, result PriorityResult) *TaskEscalated {
	return &TaskEscalated{
		BaseEvent:     sharedDomain.NewBaseEvent(aggregateID, AggregateType, RoutingKeyEscalated),
		TaskID:        input.ID,
		UrgencyLevel:  result.UrgencyLevel,
		Score:         result.PriorityMetrics.FinalPriorityScore,
		RequesterRole: input.RequesterRole,
		Reasoning:     result.Reasoning,
	}
}

// TaskLocked is emitted when a human override freezes automatic re-scoring.
type TaskLocked struct {
	sharedDomain.BaseEvent
	TaskID         string   `json:"task_id"`
	Reason         string   `json:"reason"`
	LockedBy       string   `json:"locked_by"`
	ManualPriority *float64 `json:"manual_priority,omitempty"`
	ManualStatus   string   `json:"manual_status,omitempty"`
}

// NewTaskLocked creates a TaskLocked event.
func NewTaskLocked(aggregateID uuid.UUID, taskID, reason, lockedBy string, manualPriority *float64, manualStatus string) *TaskLocked {
	return &TaskLocked{
		BaseEvent:      sharedDomain.NewBaseEvent(aggregateID, AggregateType, RoutingKeyLocked),
		TaskID:         taskID,
		Reason:         reason,
		LockedBy:       lockedBy,
		ManualPriority: manualPriority,
		ManualStatus:   manualStatus,
	}
}

// TaskUnlocked is emitted when automatic re-scoring is allowed again.
type TaskUnlocked struct {
	sharedDomain.BaseEvent
	TaskID string `json:"task_id"`
}

// NewTaskUnlocked creates a TaskUnlocked event.
func NewTaskUnlocked(aggregateID uuid.UUID, taskID string) *TaskUnlocked {
	return &TaskUnlocked{
		BaseEvent: sharedDomain.NewBaseEvent(aggregateID, AggregateType, RoutingKeyUnlocked),
		TaskID:    taskID,
	}
}
