package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/google/uuid"
)

type scoreInput struct {
	TaskID               string   `json:"task_id,omitempty"`
	Title                string   `json:"title" jsonschema:"required"`
	Description          string   `json:"description,omitempty"`
	Category             string   `json:"category,omitempty"`
	RequesterRole        string   `json:"requester_role,omitempty"`
	RequesterName        string   `json:"requester_name,omitempty"`
	Deadline             string   `json:"deadline,omitempty"`
	MeetingTime          string   `json:"meeting_time,omitempty"`
	Context              string   `json:"context,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	BusinessValue        *float64 `json:"business_value,omitempty"`
	RiskLevel            *float64 `json:"risk_level,omitempty"`
	EstimatedEffortHours *float64 `json:"estimated_effort_hours,omitempty"`
	AffectedUsersCount   *int     `json:"affected_users_count,omitempty"`
	WorkaroundAvailable  *bool    `json:"workaround_available,omitempty"`
}

type batchInput struct {
	Tasks []scoreInput `json:"tasks" jsonschema:"required"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type lockInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
	Reason string `json:"reason,omitempty"`
}

type overrideInput struct {
	TaskID         string   `json:"task_id" jsonschema:"required"`
	ManualPriority *float64 `json:"manual_priority,omitempty"`
	Status         string   `json:"status,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

type historyInput struct {
	Category string `json:"category,omitempty"`
	Urgency  string `json:"urgency,omitempty"`
	Role     string `json:"role,omitempty"`
	Locked   string `json:"locked,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

type recalcInput struct {
	Limit int `json:"limit,omitempty"`
}

type auditInput struct {
	Limit int `json:"limit,omitempty"`
}

type scoreOutput struct {
	Result            domain.PriorityResult `json:"result"`
	Locked            bool                  `json:"locked"`
	EffectivePriority float64               `json:"effective_priority"`
	ScoreCount        int                   `json:"score_count"`
}

type batchItemOutput struct {
	Index  int                    `json:"index"`
	TaskID string                 `json:"task_id"`
	Result *domain.PriorityResult `json:"result,omitempty"`
	Locked bool                   `json:"locked,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func registerPriorityTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("priority.score").
		Description("Score a task for urgency and impact and store the result").
		Handler(func(ctx context.Context, input scoreInput) (*scoreOutput, error) {
			return scoreTask(ctx, app, input)
		})

	srv.Tool("priority.batch").
		Description("Score several tasks; one failing task does not fail the others").
		Handler(func(ctx context.Context, input batchInput) ([]batchItemOutput, error) {
			return scoreBatch(ctx, app, input)
		})

	srv.Tool("priority.status").
		Description("Get the current priority result for a task").
		Handler(func(ctx context.Context, input taskIDInput) (*queries.PriorityStatus, error) {
			if app == nil || app.GetPriorityResultHandler == nil {
				return nil, errors.New("status lookup requires database connection")
			}
			if strings.TrimSpace(input.TaskID) == "" {
				return nil, errors.New("task_id is required")
			}
			return app.GetPriorityResultHandler.Handle(ctx, queries.GetPriorityResultQuery{RequestID: input.TaskID})
		})

	srv.Tool("priority.history").
		Description("List scored tasks with filters, highest priority first").
		Handler(func(ctx context.Context, input historyInput) ([]queries.ScoredTaskDTO, error) {
			if app == nil || app.ListScoredTasksHandler == nil {
				return nil, errors.New("task listing requires database connection")
			}
			return app.ListScoredTasksHandler.Handle(ctx, queries.ListScoredTasksQuery{
				Category: input.Category,
				Urgency:  input.Urgency,
				Role:     input.Role,
				Locked:   input.Locked,
				Limit:    input.Limit,
				Offset:   input.Offset,
			})
		})

	srv.Tool("priority.lock").
		Description("Lock a task so re-scoring keeps its current result").
		Handler(func(ctx context.Context, input lockInput) (map[string]any, error) {
			if app == nil || app.LockTaskHandler == nil {
				return nil, errors.New("locking requires database connection")
			}
			if err := app.LockTaskHandler.Handle(ctx, commands.LockTaskCommand{
				TaskID: input.TaskID,
				Reason: input.Reason,
				Actor:  app.Actor,
			}); err != nil {
				return nil, err
			}
			return map[string]any{"task_id": input.TaskID, "locked": true}, nil
		})

	srv.Tool("priority.unlock").
		Description("Unlock a task so it is scored again").
		Handler(func(ctx context.Context, input taskIDInput) (map[string]any, error) {
			if app == nil || app.UnlockTaskHandler == nil {
				return nil, errors.New("unlocking requires database connection")
			}
			if err := app.UnlockTaskHandler.Handle(ctx, commands.UnlockTaskCommand{
				TaskID: input.TaskID,
				Actor:  app.Actor,
			}); err != nil {
				return nil, err
			}
			return map[string]any{"task_id": input.TaskID, "locked": false}, nil
		})

	srv.Tool("priority.override").
		Description("Record a manual priority and/or status; the task is locked").
		Handler(func(ctx context.Context, input overrideInput) (map[string]any, error) {
			if app == nil || app.OverrideTaskHandler == nil {
				return nil, errors.New("overrides require database connection")
			}
			if input.ManualPriority == nil && input.Status == "" {
				return nil, errors.New("manual_priority or status is required")
			}
			if err := app.OverrideTaskHandler.Handle(ctx, commands.OverrideTaskCommand{
				TaskID:         input.TaskID,
				ManualPriority: input.ManualPriority,
				Status:         input.Status,
				Reason:         input.Reason,
				Actor:          app.Actor,
			}); err != nil {
				return nil, err
			}
			return map[string]any{"task_id": input.TaskID, "locked": true}, nil
		})

	srv.Tool("priority.recalc").
		Description("Re-score unlocked tasks so time sensitivity follows the clock").
		Handler(func(ctx context.Context, input recalcInput) (*commands.RecalculatePrioritiesResult, error) {
			if app == nil || app.RecalculateHandler == nil {
				return nil, errors.New("recalculation requires database connection")
			}
			if input.Limit < 0 {
				return nil, errors.New("limit must not be negative")
			}
			limit := input.Limit
			if limit == 0 {
				limit = app.RecalcLimit()
			}
			return app.RecalculateHandler.Handle(ctx, commands.RecalculatePrioritiesCommand{
				Limit:         limit,
				Actor:         app.Actor,
				CorrelationID: observability.CorrelationIDFromContext(ctx),
			})
		})

	srv.Tool("priority.audit").
		Description("List recent sensitive-data detections").
		Handler(func(ctx context.Context, input auditInput) ([]domain.PrivacyAuditEntry, error) {
			if app == nil || app.ListPrivacyAuditHandler == nil {
				return nil, errors.New("audit listing requires database connection")
			}
			return app.ListPrivacyAuditHandler.Handle(ctx, queries.ListPrivacyAuditQuery{Limit: input.Limit})
		})

	return nil
}

func scoreTask(ctx context.Context, app *cli.App, input scoreInput) (*scoreOutput, error) {
	if app == nil || app.ScoreTaskHandler == nil {
		return nil, errors.New("scoring requires database connection")
	}
	taskInput, err := input.toTaskInput(time.Now())
	if err != nil {
		return nil, err
	}

	result, err := app.ScoreTaskHandler.Handle(ctx, commands.ScoreTaskCommand{
		Input:         taskInput,
		Actor:         app.Actor,
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &scoreOutput{
		Result:            result.Result,
		Locked:            result.Locked,
		EffectivePriority: result.EffectivePriority,
		ScoreCount:        result.ScoreCount,
	}, nil
}

func scoreBatch(ctx context.Context, app *cli.App, input batchInput) ([]batchItemOutput, error) {
	if app == nil || app.BatchScoreHandler == nil {
		return nil, errors.New("scoring requires database connection")
	}
	if len(input.Tasks) == 0 {
		return nil, errors.New("tasks is required")
	}
	if len(input.Tasks) > commands.MaxBatchSize {
		return nil, fmt.Errorf("at most %d tasks per batch", commands.MaxBatchSize)
	}

	now := time.Now()
	inputs := make([]domain.TaskInput, 0, len(input.Tasks))
	for i, t := range input.Tasks {
		ti, err := t.toTaskInput(now)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		inputs = append(inputs, ti)
	}

	result, err := app.BatchScoreHandler.Handle(ctx, commands.BatchScoreCommand{
		Inputs:        inputs,
		Actor:         app.Actor,
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}

	out := make([]batchItemOutput, 0, len(result.Items))
	for _, item := range result.Items {
		o := batchItemOutput{Index: item.Index, TaskID: item.TaskID}
		if item.Err != nil {
			o.Error = item.Err.Error()
		} else if item.Result != nil {
			r := item.Result.Result
			o.Result = &r
			o.Locked = item.Result.Locked
		}
		out = append(out, o)
	}
	return out, nil
}

func (in scoreInput) toTaskInput(now time.Time) (domain.TaskInput, error) {
	deadline, err := parseOptionalTimestamp("deadline", in.Deadline)
	if err != nil {
		return domain.TaskInput{}, err
	}
	meeting, err := parseOptionalTimestamp("meeting_time", in.MeetingTime)
	if err != nil {
		return domain.TaskInput{}, err
	}

	id := strings.TrimSpace(in.TaskID)
	if id == "" {
		id = uuid.NewString()
	}
	description := in.Description
	if strings.TrimSpace(description) == "" {
		description = in.Title
	}

	return domain.TaskInput{
		ID:            id,
		Title:         in.Title,
		Description:   description,
		Category:      domain.ParseCategory(in.Category),
		RequesterRole: domain.ParseRole(in.RequesterRole),
		RequesterName: in.RequesterName,
		CreatedAt:     now,
		MeetingTime:   meeting,
		Deadline:      deadline,
		Context:       in.Context,
		Tags:          in.Tags,
		Overrides: domain.Overrides{
			BusinessValue:        in.BusinessValue,
			RiskLevel:            in.RiskLevel,
			EstimatedEffortHours: in.EstimatedEffortHours,
			AffectedUsersCount:   in.AffectedUsersCount,
			WorkaroundAvailable:  in.WorkaroundAvailable,
		},
	}, nil
}
