package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedPersistence "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/persistence"
)

// SQLiteScoredTaskRepository implements domain.ScoredTaskRepository using SQLite.
type SQLiteScoredTaskRepository struct {
	db *sql.DB
}

// NewSQLiteScoredTaskRepository creates a new SQLite scored task repository.
func NewSQLiteScoredTaskRepository(db *sql.DB) *SQLiteScoredTaskRepository {
	return &SQLiteScoredTaskRepository{db: db}
}

const sqliteScoredTaskColumns = `
	task_id, input, result, status, locked, lock_reason, locked_by, locked_at,
	manual_priority, score_count, version, created_at, updated_at
`

// Save upserts the task. A row already at or beyond the task's version is
// left alone and ErrConcurrentUpdate is returned.
func (r *SQLiteScoredTaskRepository) Save(ctx context.Context, task *domain.ScoredTask) error {
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (task_id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			requester_role = excluded.requester_role,
			urgency_level = excluded.urgency_level,
			final_score = excluded.final_score,
			suggested_sla_hours = excluded.suggested_sla_hours,
			escalation_recommended = excluded.escalation_recommended,
			sensitive = excluded.sensitive,
			estimated_minutes = excluded.estimated_minutes,
			due_at = excluded.due_at,
			status = excluded.status,
			locked = excluded.locked,
			lock_reason = excluded.lock_reason,
			locked_by = excluded.locked_by,
			locked_at = excluded.locked_at,
			manual_priority = excluded.manual_priority,
			score_count = excluded.score_count,
			input = excluded.input,
			result = excluded.result,
			version = excluded.version,
			updated_at = excluded.updated_at
		WHERE scored_tasks.version < excluded.version
	`

	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx, query,
		row.TaskID,
		task.ID().String(),
		task.Input().Title,
		string(task.Input().Category),
		string(task.Input().RequesterRole),
		string(result.UrgencyLevel),
		result.PriorityMetrics.FinalPriorityScore,
		result.SuggestedSLAHours,
		result.EscalationRecommended,
		result.SensitiveDataDetected,
		task.EstimatedMinutes(),
		sharedPersistence.FormatSQLiteTime(task.DueAt()),
		row.Status,
		row.Locked,
		row.LockReason,
		row.LockedBy,
		sharedPersistence.FormatSQLiteTimePtr(row.LockedAt),
		row.ManualPriority,
		row.ScoreCount,
		string(row.Input),
		string(row.Result),
		row.Version,
		sharedPersistence.FormatSQLiteTime(row.CreatedAt),
		sharedPersistence.FormatSQLiteTime(row.UpdatedAt),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

// FindByID retrieves a task by its caller-assigned ID.
func (r *SQLiteScoredTaskRepository) FindByID(ctx context.Context, taskID string) (*domain.ScoredTask, error) {
	query := `SELECT ` + sqliteScoredTaskColumns + ` FROM scored_tasks WHERE task_id = ?`

	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	task, err := scanSQLiteScoredTask(exec.QueryRowContext(ctx, query, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return task, err
}

// List returns tasks matching filter, most recently updated first.
func (r *SQLiteScoredTaskRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ScoredTask, error) {
	where, args := whereClause(filter, sqlitePlaceholder)
	query := `SELECT ` + sqliteScoredTaskColumns + ` FROM scored_tasks` + where +
		` ORDER BY updated_at DESC, task_id LIMIT ? OFFSET ?`
	args = append(args, normalizeLimit(filter.Limit), max(filter.Offset, 0))

	return r.query(ctx, query, args...)
}

// ListUnlocked returns tasks eligible for re-scoring, least recently updated first.
func (r *SQLiteScoredTaskRepository) ListUnlocked(ctx context.Context, limit int) ([]*domain.ScoredTask, error) {
	query := `SELECT ` + sqliteScoredTaskColumns + ` FROM scored_tasks
		WHERE locked = 0
		ORDER BY updated_at, task_id
		LIMIT ?`

	return r.query(ctx, query, normalizeLimit(limit))
}

func (r *SQLiteScoredTaskRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ScoredTask, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.ScoredTask
	for rows.Next() {
		task, err := scanSQLiteScoredTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteScoredTask(s rowScanner) (*domain.ScoredTask, error) {
	var (
		row                  scoredTaskRow
		input, result        string
		lockReason, lockedBy sql.NullString
		lockedAt             sql.NullString
		manualPriority       sql.NullFloat64
		createdAt, updatedAt string
	)
	err := s.Scan(
		&row.TaskID,
		&input,
		&result,
		&row.Status,
		&row.Locked,
		&lockReason,
		&lockedBy,
		&lockedAt,
		&manualPriority,
		&row.ScoreCount,
		&row.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	row.Input = []byte(input)
	row.Result = []byte(result)
	if lockReason.Valid {
		row.LockReason = &lockReason.String
	}
	if lockedBy.Valid {
		row.LockedBy = &lockedBy.String
	}
	if manualPriority.Valid {
		row.ManualPriority = &manualPriority.Float64
	}
	if row.LockedAt, err = sharedPersistence.ParseSQLiteTimePtr(lockedAt); err != nil {
		return nil, err
	}
	if row.CreatedAt, err = sharedPersistence.ParseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	if row.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updatedAt); err != nil {
		return nil, err
	}

	return row.toDomain()
}
