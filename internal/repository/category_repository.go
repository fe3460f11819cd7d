package repository

import (
	"context"

	"taskquest/pkg/models"
)

// CategoryRepository handles task category persistence
type CategoryRepository interface {
	Upsert(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

// Upsert inserts a category or updates the existing one with the same name
func (r *categoryRepository) Upsert(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (id, name, description, color, icon, xp_multiplier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    color = EXCLUDED.color,
		    icon = EXCLUDED.icon,
		    xp_multiplier = EXCLUDED.xp_multiplier
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Description, c.Color, c.Icon, c.XPMultiplier, c.CreatedAt,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return mapDBError(err, "upsert_category")
	}
	return nil
}

// GetByID retrieves a category
func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query := `
		SELECT id, name, description, color, icon, xp_multiplier, created_at
		FROM categories
		WHERE id = $1
	`
	c := &models.Category{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.XPMultiplier, &c.CreatedAt,
	)
	if err != nil {
		return nil, mapDBError(err, "get_category")
	}
	return c, nil
}

// List returns every category ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `
		SELECT id, name, description, color, icon, xp_multiplier, created_at
		FROM categories
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapDBError(err, "list_categories")
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.XPMultiplier, &c.CreatedAt); err != nil {
			return nil, mapDBError(err, "scan_category")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
