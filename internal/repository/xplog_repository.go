package repository

import (
	"context"
	"fmt"

	"taskquest/pkg/models"
)

// XPLogRepository handles the append-only XP ledger
type XPLogRepository interface {
	Create(ctx context.Context, log *models.XPLog) error
	Sum(ctx context.Context, userID string, filter models.XPLogFilter) (int, error)
	FindTaskCompletion(ctx context.Context, taskID string) (*models.XPLog, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.XPLog, error)
}

type xpLogRepository struct {
	db DBTX
}

// NewXPLogRepository creates a new PostgreSQL XP ledger repository
func NewXPLogRepository(db DBTX) XPLogRepository {
	return &xpLogRepository{db: db}
}

// Create appends a ledger entry
func (r *xpLogRepository) Create(ctx context.Context, l *models.XPLog) error {
	query := `
		INSERT INTO xp_logs (id, user_id, action, xp_earned, task_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		l.ID, l.UserID, string(l.Action), l.XPEarned, l.TaskID, l.Description, l.CreatedAt,
	)
	if err != nil {
		return mapDBError(err, "create_xp_log")
	}
	return nil
}

// Sum totals a user's ledger entries matching filter
func (r *xpLogRepository) Sum(ctx context.Context, userID string, filter models.XPLogFilter) (int, error) {
	query := `SELECT COALESCE(SUM(xp_earned), 0) FROM xp_logs WHERE user_id = $1`
	args := []interface{}{userID}
	if filter.Action != nil {
		args = append(args, string(*filter.Action))
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	return queryInt(ctx, r.db, "sum_xp_logs", query, args...)
}

// FindTaskCompletion returns the task_complete entry tied to a task
func (r *xpLogRepository) FindTaskCompletion(ctx context.Context, taskID string) (*models.XPLog, error) {
	query := `
		SELECT id, user_id, action, xp_earned, task_id, description, created_at
		FROM xp_logs
		WHERE task_id = $1 AND action = 'task_complete'
		ORDER BY created_at
		LIMIT 1
	`
	l, err := scanXPLog(r.db.QueryRow(ctx, query, taskID))
	if err != nil {
		return nil, mapDBError(err, "find_task_completion_log")
	}
	return l, nil
}

// ListByUser returns a user's most recent ledger entries
func (r *xpLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.XPLog, error) {
	query := `
		SELECT id, user_id, action, xp_earned, task_id, description, created_at
		FROM xp_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, mapDBError(err, "list_xp_logs")
	}
	defer rows.Close()

	var out []*models.XPLog
	for rows.Next() {
		l, err := scanXPLog(rows)
		if err != nil {
			return nil, mapDBError(err, "scan_xp_log")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanXPLog(row rowScanner) (*models.XPLog, error) {
	l := &models.XPLog{}
	var action string
	if err := row.Scan(&l.ID, &l.UserID, &action, &l.XPEarned, &l.TaskID, &l.Description, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Action = models.XPAction(action)
	return l, nil
}
