package persistence

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresScoredTaskRepository implements domain.ScoredTaskRepository using PostgreSQL.
type PostgresScoredTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresScoredTaskRepository creates a new PostgreSQL scored task repository.
func NewPostgresScoredTaskRepository(pool *pgxpool.Pool) *PostgresScoredTaskRepository {
	return &PostgresScoredTaskRepository{pool: pool}
}

const postgresScoredTaskColumns = `
	task_id, input, result, status, locked, lock_reason, locked_by, locked_at,
	manual_priority, score_count, version, created_at, updated_at
`

// Save upserts the task with the same version rule as the SQLite repository.
func (r *PostgresScoredTaskRepository) Save(ctx context.Context, task *domain.ScoredTask) error {
	row, err := newScoredTaskRow(task)
	if err != nil {
		return err
	}
	result := task.Result()

	query := `
		INSERT INTO scored_tasks (
			task_id, aggregate_id, title, category, requester_role, urgency_level,
			final_score, suggested_sla_hours, escalation_recommended, sensitive,
			estimated_minutes, due_at, status, locked, lock_reason, locked_by, locked_at,
			manual_priority, score_count, input, result, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (task_id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			requester_role = EXCLUDED.requester_role,
			urgency_level = EXCLUDED.urgency_level,
			final_score = EXCLUDED.final_score,
			suggested_sla_hours = EXCLUDED.suggested_sla_hours,
			escalation_recommended = EXCLUDED.escalation_recommended,
			sensitive = EXCLUDED.sensitive,
			estimated_minutes = EXCLUDED.estimated_minutes,
			due_at = EXCLUDED.due_at,
			status = EXCLUDED.status,
			locked = EXCLUDED.locked,
			lock_reason = EXCLUDED.lock_reason,
			locked_by = EXCLUDED.locked_by,
			locked_at = EXCLUDED.locked_at,
			manual_priority = EXCLUDED.manual_priority,
			score_count = EXCLUDED.score_count,
			input = EXCLUDED.input,
			result = EXCLUDED.result,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE scored_tasks.version < EXCLUDED.version
		RETURNING version
	`

	var stored int
	exec := sharedPersistence.Executor(ctx, r.pool)
	err = exec.QueryRow(ctx, query,
		row.TaskID,
		task.ID(),
		task.Input().Title,
		string(task.Input().Category),
		string(task.Input().RequesterRole),
		string(result.UrgencyLevel),
		result.PriorityMetrics.FinalPriorityScore,
		result.SuggestedSLAHours,
		result.EscalationRecommended,
		result.SensitiveDataDetected,
		task.EstimatedMinutes(),
		task.DueAt(),
		row.Status,
		row.Locked,
		row.LockReason,
		row.LockedBy,
		row.LockedAt,
		row.ManualPriority,
		row.ScoreCount,
		row.Input,
		row.Result,
		row.Version,
		row.CreatedAt,
		row.UpdatedAt,
	).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrConcurrentUpdate
	}
	return err
}

// FindByID retrieves a task by its caller-assigned ID.
func (r *PostgresScoredTaskRepository) FindByID(ctx context.Context, taskID string) (*domain.ScoredTask, error) {
	query := `SELECT ` + postgresScoredTaskColumns + ` FROM scored_tasks WHERE task_id = $1`

	exec := sharedPersistence.Executor(ctx, r.pool)
	task, err := scanPostgresScoredTask(exec.QueryRow(ctx, query, taskID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return task, err
}

// List returns tasks matching filter, most recently updated first.
func (r *PostgresScoredTaskRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ScoredTask, error) {
	where, args := whereClause(filter, postgresPlaceholder)
	args = append(args, normalizeLimit(filter.Limit), max(filter.Offset, 0))
	query := `SELECT ` + postgresScoredTaskColumns + ` FROM scored_tasks` + where +
		` ORDER BY updated_at DESC, task_id` +
		` LIMIT ` + postgresPlaceholder(len(args)-1) + ` OFFSET ` + postgresPlaceholder(len(args))

	return r.query(ctx, query, args...)
}

// ListUnlocked returns tasks eligible for re-scoring, least recently updated first.
func (r *PostgresScoredTaskRepository) ListUnlocked(ctx context.Context, limit int) ([]*domain.ScoredTask, error) {
	query := `SELECT ` + postgresScoredTaskColumns + ` FROM scored_tasks
		WHERE locked = FALSE
		ORDER BY updated_at, task_id
		LIMIT $1`

	return r.query(ctx, query, normalizeLimit(limit))
}

func (r *PostgresScoredTaskRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ScoredTask, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.ScoredTask
	for rows.Next() {
		task, err := scanPostgresScoredTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanPostgresScoredTask(s rowScanner) (*domain.ScoredTask, error) {
	var row scoredTaskRow
	err := s.Scan(
		&row.TaskID,
		&row.Input,
		&row.Result,
		&row.Status,
		&row.Locked,
		&row.LockReason,
		&row.LockedBy,
		&row.LockedAt,
		&row.ManualPriority,
		&row.ScoreCount,
		&row.Version,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}
