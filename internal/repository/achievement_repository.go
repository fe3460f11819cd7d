package repository

import (
	"context"

	"taskquest/pkg/models"
)

// AchievementRepository handles achievement definitions and unlocks
type AchievementRepository interface {
	Upsert(ctx context.Context, achievement *models.Achievement) error
	GetByID(ctx context.Context, id string) (*models.Achievement, error)
	List(ctx context.Context, includeHidden bool) ([]*models.Achievement, error)
	// ListLocked returns active achievements the user has not unlocked yet
	ListLocked(ctx context.Context, userID string) ([]*models.Achievement, error)
	// ListLockedLevel returns locked level achievements with threshold in (above, upTo]
	ListLockedLevel(ctx context.Context, userID string, above, upTo int) ([]*models.Achievement, error)
	Unlock(ctx context.Context, unlock *models.UserAchievement) error
	ListUnlocked(ctx context.Context, userID string) ([]*models.UserAchievement, error)
}

type achievementRepository struct {
	db DBTX
}

// NewAchievementRepository creates a new PostgreSQL achievement repository
func NewAchievementRepository(db DBTX) AchievementRepository {
	return &achievementRepository{db: db}
}

const achievementColumns = `
	a.id, a.name, a.description, a.achievement_type, a.threshold, a.xp_reward,
	a.icon, a.is_hidden, a.is_active, a.created_at
`

func scanAchievement(row rowScanner) (*models.Achievement, error) {
	a := &models.Achievement{}
	var kind string
	err := row.Scan(&a.ID, &a.Name, &a.Description, &kind, &a.Threshold, &a.XPReward,
		&a.Icon, &a.IsHidden, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.AchievementType = models.AchievementType(kind)
	return a, nil
}

// Upsert inserts a definition or refreshes the existing one with the same name
func (r *achievementRepository) Upsert(ctx context.Context, a *models.Achievement) error {
	query := `
		INSERT INTO achievements (id, name, description, achievement_type, threshold, xp_reward,
		                          icon, is_hidden, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    achievement_type = EXCLUDED.achievement_type,
		    threshold = EXCLUDED.threshold,
		    xp_reward = EXCLUDED.xp_reward,
		    icon = EXCLUDED.icon,
		    is_hidden = EXCLUDED.is_hidden,
		    is_active = EXCLUDED.is_active
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID, a.Name, a.Description, string(a.AchievementType), a.Threshold, a.XPReward,
		a.Icon, a.IsHidden, a.IsActive, a.CreatedAt,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return mapDBError(err, "upsert_achievement")
	}
	return nil
}

// GetByID retrieves a definition
func (r *achievementRepository) GetByID(ctx context.Context, id string) (*models.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements a WHERE a.id = $1`
	a, err := scanAchievement(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapDBError(err, "get_achievement")
	}
	return a, nil
}

// List returns active definitions ordered by type and threshold
func (r *achievementRepository) List(ctx context.Context, includeHidden bool) ([]*models.Achievement, error) {
	query := `SELECT ` + achievementColumns + `
		FROM achievements a
		WHERE a.is_active = TRUE AND ($1 OR a.is_hidden = FALSE)
		ORDER BY a.achievement_type, a.threshold
	`
	return r.queryAchievements(ctx, "list_achievements", query, includeHidden)
}

// ListLocked returns active definitions without an unlock row for the user
func (r *achievementRepository) ListLocked(ctx context.Context, userID string) ([]*models.Achievement, error) {
	query := `SELECT ` + achievementColumns + `
		FROM achievements a
		WHERE a.is_active = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM user_achievements ua
			WHERE ua.achievement_id = a.id AND ua.user_id = $1
		  )
		ORDER BY a.achievement_type, a.threshold
	`
	return r.queryAchievements(ctx, "list_locked_achievements", query, userID)
}

// ListLockedLevel returns locked level achievements crossed by a level-up
func (r *achievementRepository) ListLockedLevel(ctx context.Context, userID string, above, upTo int) ([]*models.Achievement, error) {
	query := `SELECT ` + achievementColumns + `
		FROM achievements a
		WHERE a.is_active = TRUE
		  AND a.achievement_type = 'level'
		  AND a.threshold > $2 AND a.threshold <= $3
		  AND NOT EXISTS (
			SELECT 1 FROM user_achievements ua
			WHERE ua.achievement_id = a.id AND ua.user_id = $1
		  )
		ORDER BY a.threshold
	`
	return r.queryAchievements(ctx, "list_locked_level_achievements", query, userID, above, upTo)
}

// Unlock records an unlock; a second unlock of the same pair fails with ErrAlreadyUnlocked
func (r *achievementRepository) Unlock(ctx context.Context, ua *models.UserAchievement) error {
	query := `
		INSERT INTO user_achievements (id, user_id, achievement_id, progress, unlocked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, ua.ID, ua.UserID, ua.AchievementID, ua.Progress, ua.UnlockedAt)
	if err != nil {
		return mapDBError(err, "unlock_achievement")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAlreadyUnlocked
	}
	return nil
}

// ListUnlocked returns a user's unlocks joined with their definitions, newest first
func (r *achievementRepository) ListUnlocked(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	query := `SELECT ua.id, ua.user_id, ua.achievement_id, ua.progress, ua.unlocked_at, ` + achievementColumns + `
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, mapDBError(err, "list_unlocked_achievements")
	}
	defer rows.Close()

	var out []*models.UserAchievement
	for rows.Next() {
		ua := &models.UserAchievement{Achievement: &models.Achievement{}}
		a := ua.Achievement
		var kind string
		err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Progress, &ua.UnlockedAt,
			&a.ID, &a.Name, &a.Description, &kind, &a.Threshold, &a.XPReward,
			&a.Icon, &a.IsHidden, &a.IsActive, &a.CreatedAt)
		if err != nil {
			return nil, mapDBError(err, "scan_user_achievement")
		}
		a.AchievementType = models.AchievementType(kind)
		out = append(out, ua)
	}
	return out, rows.Err()
}

func (r *achievementRepository) queryAchievements(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Achievement, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err, operation)
	}
	defer rows.Close()

	var out []*models.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, mapDBError(err, operation)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, operation)
	}
	return out, nil
}
