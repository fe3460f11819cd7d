package repository

import (
	"context"
	"errors"
	"time"

	"taskquest/pkg/models"
)

// ProfileRepository handles progress profile persistence
type ProfileRepository interface {
	// Ensure creates the default profile when missing and returns the row locked for update
	Ensure(ctx context.Context, userID string, now time.Time) (*models.ProgressProfile, error)
	Get(ctx context.Context, userID string) (*models.ProgressProfile, error)
	Update(ctx context.Context, profile *models.ProgressProfile) error
}

type profileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db DBTX) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `
	user_id, total_xp, current_level, current_streak, longest_streak, last_activity_date,
	total_early_completions, total_on_time_completions, total_late_completions,
	created_at, updated_at
`

func scanProfile(row rowScanner) (*models.ProgressProfile, error) {
	p := &models.ProgressProfile{}
	err := row.Scan(
		&p.UserID, &p.TotalXP, &p.CurrentLevel, &p.CurrentStreak, &p.LongestStreak, &p.LastActivityDate,
		&p.TotalEarlyCompletions, &p.TotalOnTimeCompletions, &p.TotalLateCompletions,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Ensure upserts the default profile then reads it with a row lock
func (r *profileRepository) Ensure(ctx context.Context, userID string, now time.Time) (*models.ProgressProfile, error) {
	insertQuery := `
		INSERT INTO progress_profiles (user_id, current_level, created_at, updated_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, insertQuery, userID, now); err != nil {
		return nil, mapDBError(err, "ensure_profile")
	}

	query := `SELECT ` + profileColumns + `
		FROM progress_profiles
		WHERE user_id = $1
		FOR UPDATE
	`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, mapDBError(err, "lock_profile")
	}
	return p, nil
}

// Get reads a profile without locking
func (r *profileRepository) Get(ctx context.Context, userID string) (*models.ProgressProfile, error) {
	query := `SELECT ` + profileColumns + `
		FROM progress_profiles
		WHERE user_id = $1
	`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, errNoRows) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, mapDBError(err, "get_profile")
	}
	return p, nil
}

// Update writes every mutable profile field
func (r *profileRepository) Update(ctx context.Context, p *models.ProgressProfile) error {
	query := `
		UPDATE progress_profiles
		SET total_xp = $2,
		    current_level = $3,
		    current_streak = $4,
		    longest_streak = $5,
		    last_activity_date = $6,
		    total_early_completions = $7,
		    total_on_time_completions = $8,
		    total_late_completions = $9,
		    updated_at = $10
		WHERE user_id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		p.UserID, p.TotalXP, p.CurrentLevel, p.CurrentStreak, p.LongestStreak, p.LastActivityDate,
		p.TotalEarlyCompletions, p.TotalOnTimeCompletions, p.TotalLateCompletions, p.UpdatedAt,
	)
	if err != nil {
		return mapDBError(err, "update_profile")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(errNoRows, "update_profile")
	}
	return nil
}
