package repository

import (
	"context"
	"time"

	"taskquest/pkg/models"
)

// LeaderboardRepository handles leaderboard scopes and ranked snapshots
type LeaderboardRepository interface {
	// GetOrCreateType returns the scope with lt.Name, creating it from lt when missing
	GetOrCreateType(ctx context.Context, lt *models.LeaderboardType) (*models.LeaderboardType, error)
	// UpsertEntry writes an entry keyed by (leaderboard_type_id, user_id, period_start)
	UpsertEntry(ctx context.Context, entry *models.LeaderboardEntry) error
	// LatestPeriodEnd returns the end of the newest snapshot written for kind
	LatestPeriodEnd(ctx context.Context, kind models.LeaderboardKind) (time.Time, error)
	ListSnapshot(ctx context.Context, kind models.LeaderboardKind, periodEnd time.Time, limit int) ([]*models.LeaderboardEntry, error)
	ListRankRange(ctx context.Context, kind models.LeaderboardKind, periodEnd time.Time, fromRank, toRank int) ([]*models.LeaderboardEntry, error)
	LatestUserEntry(ctx context.Context, kind models.LeaderboardKind, userID string) (*models.LeaderboardEntry, error)
}

type leaderboardRepository struct {
	db DBTX
}

// NewLeaderboardRepository creates a new PostgreSQL leaderboard repository
func NewLeaderboardRepository(db DBTX) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

const entryColumns = `
	e.id, e.leaderboard_type_id, e.user_id, COALESCE(u.username, ''), e.score, e.rank,
	e.tasks_completed, e.total_xp, e.streak_count, e.punctuality_rate,
	e.period_start, e.period_end, e.updated_at
`

const entryJoins = `
	FROM leaderboard_entries e
	JOIN leaderboard_types lt ON lt.id = e.leaderboard_type_id
	LEFT JOIN users u ON u.id = e.user_id
`

func scanEntry(row rowScanner) (*models.LeaderboardEntry, error) {
	e := &models.LeaderboardEntry{}
	err := row.Scan(
		&e.ID, &e.LeaderboardTypeID, &e.UserID, &e.Username, &e.Score, &e.Rank,
		&e.TasksCompleted, &e.TotalXP, &e.StreakCount, &e.PunctualityRate,
		&e.PeriodStart, &e.PeriodEnd, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetOrCreateType inserts the scope if its name is new, then reads it back
func (r *leaderboardRepository) GetOrCreateType(ctx context.Context, lt *models.LeaderboardType) (*models.LeaderboardType, error) {
	insertQuery := `
		INSERT INTO leaderboard_types (id, name, leaderboard_type, category_id, reset_frequency, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING
	`
	_, err := r.db.Exec(ctx, insertQuery,
		lt.ID, lt.Name, string(lt.LeaderboardType), lt.CategoryID, lt.ResetFrequency, lt.IsActive, lt.CreatedAt,
	)
	if err != nil {
		return nil, mapDBError(err, "create_leaderboard_type")
	}

	query := `
		SELECT id, name, leaderboard_type, category_id, reset_frequency, is_active, created_at
		FROM leaderboard_types
		WHERE name = $1
	`
	out := &models.LeaderboardType{}
	var kind string
	err = r.db.QueryRow(ctx, query, lt.Name).Scan(
		&out.ID, &out.Name, &kind, &out.CategoryID, &out.ResetFrequency, &out.IsActive, &out.CreatedAt,
	)
	if err != nil {
		return nil, mapDBError(err, "get_leaderboard_type")
	}
	out.LeaderboardType = models.LeaderboardKind(kind)
	return out, nil
}

// UpsertEntry inserts or refreshes a ranked entry
func (r *leaderboardRepository) UpsertEntry(ctx context.Context, e *models.LeaderboardEntry) error {
	query := `
		INSERT INTO leaderboard_entries (id, leaderboard_type_id, user_id, score, rank, tasks_completed,
		                                 total_xp, streak_count, punctuality_rate, period_start, period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (leaderboard_type_id, user_id, period_start) DO UPDATE
		SET score = EXCLUDED.score,
		    rank = EXCLUDED.rank,
		    tasks_completed = EXCLUDED.tasks_completed,
		    total_xp = EXCLUDED.total_xp,
		    streak_count = EXCLUDED.streak_count,
		    punctuality_rate = EXCLUDED.punctuality_rate,
		    period_end = EXCLUDED.period_end,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		e.ID, e.LeaderboardTypeID, e.UserID, e.Score, e.Rank, e.TasksCompleted,
		e.TotalXP, e.StreakCount, e.PunctualityRate, e.PeriodStart, e.PeriodEnd, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return mapDBError(err, "upsert_leaderboard_entry")
	}
	return nil
}

// LatestPeriodEnd finds the newest snapshot for a scope
func (r *leaderboardRepository) LatestPeriodEnd(ctx context.Context, kind models.LeaderboardKind) (time.Time, error) {
	query := `
		SELECT MAX(e.period_end)
		FROM leaderboard_entries e
		JOIN leaderboard_types lt ON lt.id = e.leaderboard_type_id
		WHERE lt.leaderboard_type = $1
	`
	var latest *time.Time
	if err := r.db.QueryRow(ctx, query, string(kind)).Scan(&latest); err != nil {
		return time.Time{}, mapDBError(err, "latest_leaderboard_period")
	}
	if latest == nil {
		return time.Time{}, mapDBError(errNoRows, "latest_leaderboard_period")
	}
	return *latest, nil
}

// ListSnapshot returns the top of one snapshot ordered by rank
func (r *leaderboardRepository) ListSnapshot(ctx context.Context, kind models.LeaderboardKind, periodEnd time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	query := `SELECT ` + entryColumns + entryJoins + `
		WHERE lt.leaderboard_type = $1 AND e.period_end = $2
		ORDER BY e.rank
		LIMIT $3
	`
	return r.queryEntries(ctx, "list_leaderboard", query, string(kind), periodEnd, limit)
}

// ListRankRange returns entries of one snapshot with rank in [fromRank, toRank]
func (r *leaderboardRepository) ListRankRange(ctx context.Context, kind models.LeaderboardKind, periodEnd time.Time, fromRank, toRank int) ([]*models.LeaderboardEntry, error) {
	query := `SELECT ` + entryColumns + entryJoins + `
		WHERE lt.leaderboard_type = $1 AND e.period_end = $2
		  AND e.rank BETWEEN $3 AND $4
		ORDER BY e.rank
	`
	return r.queryEntries(ctx, "list_leaderboard_range", query, string(kind), periodEnd, fromRank, toRank)
}

// LatestUserEntry returns the user's most recent entry for a scope
func (r *leaderboardRepository) LatestUserEntry(ctx context.Context, kind models.LeaderboardKind, userID string) (*models.LeaderboardEntry, error) {
	query := `SELECT ` + entryColumns + entryJoins + `
		WHERE lt.leaderboard_type = $1 AND e.user_id = $2
		ORDER BY e.period_end DESC
		LIMIT 1
	`
	e, err := scanEntry(r.db.QueryRow(ctx, query, string(kind), userID))
	if err != nil {
		return nil, mapDBError(err, "get_user_rank")
	}
	return e, nil
}

func (r *leaderboardRepository) queryEntries(ctx context.Context, operation, query string, args ...interface{}) ([]*models.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err, operation)
	}
	defer rows.Close()

	var out []*models.LeaderboardEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, mapDBError(err, operation)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, operation)
	}
	return out, nil
}
