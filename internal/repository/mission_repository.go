package repository

import (
	"context"
	"fmt"
	"time"

	"taskquest/pkg/models"
)

// MissionRepository handles mission templates and user missions
type MissionRepository interface {
	UpsertTemplate(ctx context.Context, template *models.MissionTemplate) error
	GetTemplate(ctx context.Context, id string) (*models.MissionTemplate, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]*models.MissionTemplate, error)

	Create(ctx context.Context, mission *models.UserMission) error
	GetByID(ctx context.Context, id string) (*models.UserMission, error)
	// List orders by assigned date (newest first), then open missions before completed ones
	List(ctx context.Context, userID string, filter models.MissionFilter) ([]*models.UserMission, error)
	Update(ctx context.Context, mission *models.UserMission) error
	CountActive(ctx context.Context, userID string) (int, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.UserMission, error)
	CompletedTemplateIDsSince(ctx context.Context, userID string, since time.Time) ([]string, error)
}

type missionRepository struct {
	db DBTX
}

// NewMissionRepository creates a new PostgreSQL mission repository
func NewMissionRepository(db DBTX) MissionRepository {
	return &missionRepository{db: db}
}

const templateColumns = `
	id, name, description, mission_type, difficulty, target_value, duration_days,
	xp_reward, bonus_multiplier, category_id, min_user_level, max_user_level,
	is_active, is_repeatable, weight, created_at
`

const missionColumns = `
	id, user_id, template_id, title, description, mission_type, cadence, category_id,
	target_value, current_progress, status, xp_reward, bonus_multiplier,
	assigned_date, start_date, end_date, completed_at, created_at, updated_at
`

func scanTemplate(row rowScanner) (*models.MissionTemplate, error) {
	t := &models.MissionTemplate{}
	var missionType, difficulty string
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &missionType, &difficulty, &t.TargetValue, &t.DurationDays,
		&t.XPReward, &t.BonusMultiplier, &t.CategoryID, &t.MinUserLevel, &t.MaxUserLevel,
		&t.IsActive, &t.IsRepeatable, &t.Weight, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.MissionType = models.MissionType(missionType)
	t.Difficulty = models.MissionDifficulty(difficulty)
	return t, nil
}

func scanMission(row rowScanner) (*models.UserMission, error) {
	m := &models.UserMission{}
	var missionType, cadence, status string
	err := row.Scan(
		&m.ID, &m.UserID, &m.TemplateID, &m.Title, &m.Description, &missionType, &cadence, &m.CategoryID,
		&m.TargetValue, &m.CurrentProgress, &status, &m.XPReward, &m.BonusMultiplier,
		&m.AssignedDate, &m.StartDate, &m.EndDate, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.MissionType = models.MissionType(missionType)
	m.Cadence = models.MissionCadence(cadence)
	m.Status = models.MissionStatus(status)
	return m, nil
}

// UpsertTemplate inserts a template or refreshes the existing one with the same name
func (r *missionRepository) UpsertTemplate(ctx context.Context, t *models.MissionTemplate) error {
	query := `
		INSERT INTO mission_templates (id, name, description, mission_type, difficulty, target_value,
		                               duration_days, xp_reward, bonus_multiplier, category_id,
		                               min_user_level, max_user_level, is_active, is_repeatable, weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    mission_type = EXCLUDED.mission_type,
		    difficulty = EXCLUDED.difficulty,
		    target_value = EXCLUDED.target_value,
		    duration_days = EXCLUDED.duration_days,
		    xp_reward = EXCLUDED.xp_reward,
		    bonus_multiplier = EXCLUDED.bonus_multiplier,
		    category_id = EXCLUDED.category_id,
		    min_user_level = EXCLUDED.min_user_level,
		    max_user_level = EXCLUDED.max_user_level,
		    is_active = EXCLUDED.is_active,
		    is_repeatable = EXCLUDED.is_repeatable,
		    weight = EXCLUDED.weight
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		t.ID, t.Name, t.Description, string(t.MissionType), string(t.Difficulty), t.TargetValue,
		t.DurationDays, t.XPReward, t.BonusMultiplier, t.CategoryID,
		t.MinUserLevel, t.MaxUserLevel, t.IsActive, t.IsRepeatable, t.Weight, t.CreatedAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return mapDBError(err, "upsert_mission_template")
	}
	return nil
}

// GetTemplate retrieves a template
func (r *missionRepository) GetTemplate(ctx context.Context, id string) (*models.MissionTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM mission_templates WHERE id = $1`
	t, err := scanTemplate(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapDBError(err, "get_mission_template")
	}
	return t, nil
}

// ListTemplates returns templates ordered by name
func (r *missionRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]*models.MissionTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM mission_templates
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, mapDBError(err, "list_mission_templates")
	}
	defer rows.Close()

	var out []*models.MissionTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, mapDBError(err, "scan_mission_template")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a user mission
func (r *missionRepository) Create(ctx context.Context, m *models.UserMission) error {
	query := `
		INSERT INTO user_missions (id, user_id, template_id, title, description, mission_type, cadence,
		                           category_id, target_value, current_progress, status, xp_reward,
		                           bonus_multiplier, assigned_date, start_date, end_date, completed_at,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.db.Exec(ctx, query,
		m.ID, m.UserID, m.TemplateID, m.Title, m.Description, string(m.MissionType), string(m.Cadence),
		m.CategoryID, m.TargetValue, m.CurrentProgress, string(m.Status), m.XPReward,
		m.BonusMultiplier, m.AssignedDate, m.StartDate, m.EndDate, m.CompletedAt,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return mapDBError(err, "create_user_mission")
	}
	return nil
}

// GetByID retrieves a user mission
func (r *missionRepository) GetByID(ctx context.Context, id string) (*models.UserMission, error) {
	query := `SELECT ` + missionColumns + ` FROM user_missions WHERE id = $1`
	m, err := scanMission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapDBError(err, "get_user_mission")
	}
	return m, nil
}

// List returns a user's missions matching filter
func (r *missionRepository) List(ctx context.Context, userID string, filter models.MissionFilter) ([]*models.UserMission, error) {
	query := `SELECT ` + missionColumns + ` FROM user_missions WHERE user_id = $1`
	args := []interface{}{userID}
	if filter.Cadence != nil {
		args = append(args, string(*filter.Cadence))
		query += fmt.Sprintf(" AND cadence = $%d", len(args))
	}
	if filter.MissionType != nil {
		args = append(args, string(*filter.MissionType))
		query += fmt.Sprintf(" AND mission_type = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AssignedOn != nil {
		args = append(args, *filter.AssignedOn)
		query += fmt.Sprintf(" AND assigned_date = $%d", len(args))
	}
	query += " ORDER BY assigned_date DESC, (status = 'completed') ASC, created_at ASC"

	return r.queryMissions(ctx, "list_user_missions", query, args...)
}

// Update writes progress and lifecycle fields
func (r *missionRepository) Update(ctx context.Context, m *models.UserMission) error {
	query := `
		UPDATE user_missions
		SET current_progress = $2,
		    status = $3,
		    completed_at = $4,
		    updated_at = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, m.ID, m.CurrentProgress, string(m.Status), m.CompletedAt, m.UpdatedAt)
	if err != nil {
		return mapDBError(err, "update_user_mission")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(errNoRows, "update_user_mission")
	}
	return nil
}

// CountActive counts a user's active missions
func (r *missionRepository) CountActive(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM user_missions WHERE user_id = $1 AND status = 'active'`
	return queryInt(ctx, r.db, "count_active_missions", query, userID)
}

// ListExpired returns active missions whose end date has passed
func (r *missionRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.UserMission, error) {
	query := `SELECT ` + missionColumns + `
		FROM user_missions
		WHERE status = 'active' AND end_date < $1
		ORDER BY end_date
	`
	return r.queryMissions(ctx, "list_expired_missions", query, now)
}

// CompletedTemplateIDsSince returns templates the user completed at or after since
func (r *missionRepository) CompletedTemplateIDsSince(ctx context.Context, userID string, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT template_id
		FROM user_missions
		WHERE user_id = $1 AND status = 'completed' AND completed_at >= $2
	`
	return queryIDs(ctx, r.db, "list_recently_completed_templates", query, userID, since)
}

func (r *missionRepository) queryMissions(ctx context.Context, operation, query string, args ...interface{}) ([]*models.UserMission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err, operation)
	}
	defer rows.Close()

	var out []*models.UserMission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, mapDBError(err, operation)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, operation)
	}
	return out, nil
}
