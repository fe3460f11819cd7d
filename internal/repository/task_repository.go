package repository

import (
	"context"
	"time"

	"taskquest/pkg/models"
)

// TaskRepository handles task persistence and the completion aggregates the engine reads
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByUser(ctx context.Context, userID string, completed *bool, limit, offset int) ([]*models.Task, error)

	// MarkCompleted flips an open task to completed. It fails with ErrTaskAlreadyCompleted
	// when the task was completed already, which is the double-submit guard.
	MarkCompleted(ctx context.Context, id string, at time.Time) error

	CountAll(ctx context.Context, userID string) (int, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
	CountCompletedBetween(ctx context.Context, userID string, from, to time.Time) (int, error)
	CountCompletedBeforeDue(ctx context.Context, userID string) (int, error)
	MaxCompletedInCategory(ctx context.Context, userID string) (int, error)
	ListCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Task, error)
	ListCompletionTimes(ctx context.Context, userID string) ([]time.Time, error)
	ListUsersCompletedBetween(ctx context.Context, from, to time.Time) ([]string, error)
}

type taskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new PostgreSQL task repository
func NewTaskRepository(db DBTX) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `
	t.id, t.user_id, t.title, t.description, t.category_id,
	c.name, c.color, c.xp_multiplier,
	t.difficulty, t.priority, t.is_completed, t.due_date,
	t.created_at, t.completed_at, t.updated_at
`

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var difficulty, priority string
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.CategoryID,
		&t.Category.Name, &t.Category.Color, &t.Category.XPMultiplier,
		&difficulty, &priority, &t.IsCompleted, &t.DueDate,
		&t.CreatedAt, &t.CompletedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Category.ID = t.CategoryID
	t.Difficulty = models.Difficulty(difficulty)
	t.Priority = models.Priority(priority)
	return t, nil
}

// Create inserts a task
func (r *taskRepository) Create(ctx context.Context, t *models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, category_id, difficulty, priority,
		                   is_completed, due_date, created_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.CategoryID,
		string(t.Difficulty), string(t.Priority),
		t.IsCompleted, t.DueDate, t.CreatedAt, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		return mapDBError(err, "create_task")
	}
	return nil
}

// GetByID retrieves a task joined with its category
func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1
	`
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapDBError(err, "get_task")
	}
	return t, nil
}

// ListByUser lists a user's tasks, newest first
func (r *taskRepository) ListByUser(ctx context.Context, userID string, completed *bool, limit, offset int) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		  AND ($2::boolean IS NULL OR t.is_completed = $2)
		ORDER BY t.created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.queryTasks(ctx, "list_tasks", query, userID, completed, limit, offset)
}

// MarkCompleted sets is_completed and completed_at together
func (r *taskRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE tasks
		SET is_completed = TRUE,
		    completed_at = $2,
		    updated_at = $2
		WHERE id = $1 AND is_completed = FALSE
	`
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return mapDBError(err, "complete_task")
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already completed; tell them apart
		exists, err := queryInt(ctx, r.db, "complete_task", `SELECT COUNT(*) FROM tasks WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if exists == 0 {
			return mapDBError(errNoRows, "complete_task")
		}
		return models.ErrTaskAlreadyCompleted
	}
	return nil
}

// CountAll counts every task a user owns
func (r *taskRepository) CountAll(ctx context.Context, userID string) (int, error) {
	return queryInt(ctx, r.db, "count_tasks", `SELECT COUNT(*) FROM tasks WHERE user_id = $1`, userID)
}

// CountCompleted counts a user's completed tasks
func (r *taskRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND is_completed = TRUE`
	return queryInt(ctx, r.db, "count_completed_tasks", query, userID)
}

// CountCompletedBetween counts completions in [from, to)
func (r *taskRepository) CountCompletedBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND is_completed = TRUE
		  AND completed_at >= $2 AND completed_at < $3
	`
	return queryInt(ctx, r.db, "count_completed_between", query, userID, from, to)
}

// CountCompletedBeforeDue counts completions that beat their due date
func (r *taskRepository) CountCompletedBeforeDue(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND is_completed = TRUE
		  AND due_date IS NOT NULL AND completed_at < due_date
	`
	return queryInt(ctx, r.db, "count_completed_before_due", query, userID)
}

// MaxCompletedInCategory returns the highest completion count in any single category
func (r *taskRepository) MaxCompletedInCategory(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(cnt), 0)
		FROM (
			SELECT COUNT(*) AS cnt
			FROM tasks
			WHERE user_id = $1 AND is_completed = TRUE
			GROUP BY category_id
		) per_category
	`
	return queryInt(ctx, r.db, "max_completed_in_category", query, userID)
}

// ListCompletedBetween lists completions in [from, to), oldest first
func (r *taskRepository) ListCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.is_completed = TRUE
		  AND t.completed_at >= $2 AND t.completed_at < $3
		ORDER BY t.completed_at
	`
	return r.queryTasks(ctx, "list_completed_between", query, userID, from, to)
}

// ListCompletionTimes returns every completion timestamp, oldest first
func (r *taskRepository) ListCompletionTimes(ctx context.Context, userID string) ([]time.Time, error) {
	query := `
		SELECT completed_at
		FROM tasks
		WHERE user_id = $1 AND is_completed = TRUE
		ORDER BY completed_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, mapDBError(err, "list_completion_times")
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, mapDBError(err, "scan_completion_time")
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

// ListUsersCompletedBetween returns users with at least one completion in [from, to)
func (r *taskRepository) ListUsersCompletedBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM tasks
		WHERE is_completed = TRUE AND completed_at >= $1 AND completed_at < $2
		ORDER BY user_id
	`
	return queryIDs(ctx, r.db, "list_users_completed_between", query, from, to)
}

func (r *taskRepository) queryTasks(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err, operation)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, mapDBError(err, operation)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, operation)
	}
	return out, nil
}
