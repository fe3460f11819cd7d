package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskquest/pkg/models"
)

// ReviewRepository handles weekly review persistence
type ReviewRepository interface {
	// Upsert writes the review for (user, week_start), replacing an earlier one for the same week
	Upsert(ctx context.Context, review *models.WeeklyReview) error
	GetByWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyReview, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.WeeklyReview, error)
}

type reviewRepository struct {
	db DBTX
}

// NewReviewRepository creates a new PostgreSQL weekly review repository
func NewReviewRepository(db DBTX) ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewColumns = `
	id, user_id, week_start, week_end, total_tasks, total_xp,
	early_completions, on_time_completions, late_completions,
	performance_score, suggestions, category_breakdown, created_at
`

func scanReview(row rowScanner) (*models.WeeklyReview, error) {
	rv := &models.WeeklyReview{}
	var breakdown []byte
	err := row.Scan(
		&rv.ID, &rv.UserID, &rv.WeekStart, &rv.WeekEnd, &rv.TotalTasks, &rv.TotalXP,
		&rv.EarlyCompletions, &rv.OnTimeCompletions, &rv.LateCompletions,
		&rv.PerformanceScore, &rv.Suggestions, &breakdown, &rv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rv.CategoryBreakdown = map[string]models.CategoryStat{}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &rv.CategoryBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode category breakdown: %w", err)
		}
	}
	return rv, nil
}

// Upsert inserts or refreshes a weekly review keyed by (user_id, week_start)
func (r *reviewRepository) Upsert(ctx context.Context, rv *models.WeeklyReview) error {
	breakdown, err := json.Marshal(rv.CategoryBreakdown)
	if err != nil {
		return fmt.Errorf("failed to encode category breakdown: %w", err)
	}

	query := `
		INSERT INTO weekly_reviews (id, user_id, week_start, week_end, total_tasks, total_xp,
		                            early_completions, on_time_completions, late_completions,
		                            performance_score, suggestions, category_breakdown, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, week_start) DO UPDATE
		SET week_end = EXCLUDED.week_end,
		    total_tasks = EXCLUDED.total_tasks,
		    total_xp = EXCLUDED.total_xp,
		    early_completions = EXCLUDED.early_completions,
		    on_time_completions = EXCLUDED.on_time_completions,
		    late_completions = EXCLUDED.late_completions,
		    performance_score = EXCLUDED.performance_score,
		    suggestions = EXCLUDED.suggestions,
		    category_breakdown = EXCLUDED.category_breakdown
		RETURNING id, created_at
	`
	err = r.db.QueryRow(ctx, query,
		rv.ID, rv.UserID, rv.WeekStart, rv.WeekEnd, rv.TotalTasks, rv.TotalXP,
		rv.EarlyCompletions, rv.OnTimeCompletions, rv.LateCompletions,
		rv.PerformanceScore, rv.Suggestions, breakdown, rv.CreatedAt,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return mapDBError(err, "upsert_weekly_review")
	}
	return nil
}

// GetByWeek retrieves the review for one week
func (r *reviewRepository) GetByWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyReview, error) {
	query := `SELECT ` + reviewColumns + `
		FROM weekly_reviews
		WHERE user_id = $1 AND week_start = $2
	`
	rv, err := scanReview(r.db.QueryRow(ctx, query, userID, weekStart))
	if err != nil {
		return nil, mapDBError(err, "get_weekly_review")
	}
	return rv, nil
}

// ListByUser returns a user's reviews, most recent week first
func (r *reviewRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.WeeklyReview, error) {
	query := `SELECT ` + reviewColumns + `
		FROM weekly_reviews
		WHERE user_id = $1
		ORDER BY week_start DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, mapDBError(err, "list_weekly_reviews")
	}
	defer rows.Close()

	var out []*models.WeeklyReview
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, mapDBError(err, "scan_weekly_review")
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
