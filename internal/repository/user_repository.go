package repository

import (
	"context"
	"time"

	"taskquest/pkg/models"
)

// UserRepository reads the accounts owned by the user-management collaborator
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	ListActiveSince(ctx context.Context, since time.Time) ([]string, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, role, last_login_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	_, err := r.db.Exec(ctx, query, user.ID, user.Username, string(user.Role), user.LastLoginAt, user.CreatedAt)
	if err != nil {
		return mapDBError(err, "create_user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, role, last_login_at, created_at
		FROM users
		WHERE id = $1
	`
	var role string
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &role, &user.LastLoginAt, &user.CreatedAt)
	if err != nil {
		return nil, mapDBError(err, "get_user")
	}
	user.Role = models.UserRole(role)
	return user, nil
}

// TouchLogin records a login
func (r *userRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return mapDBError(err, "touch_login")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(errNoRows, "touch_login")
	}
	return nil
}

// ListActiveSince returns ids of users who logged in at or after since
func (r *userRepository) ListActiveSince(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT id
		FROM users
		WHERE last_login_at >= $1
		ORDER BY id
	`
	return queryIDs(ctx, r.db, "list_active_users", query, since)
}
