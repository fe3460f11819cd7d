package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskquest/pkg/models"
)

// DBTX is the part of pgx shared by pools, connections and transactions
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the Progression Store: every repository bound to one connection or transaction
type Store interface {
	Users() UserRepository
	Categories() CategoryRepository
	Tasks() TaskRepository
	XPLogs() XPLogRepository
	Profiles() ProfileRepository
	Achievements() AchievementRepository
	Reviews() ReviewRepository
	Missions() MissionRepository
	Leaderboards() LeaderboardRepository
	Notifications() NotificationRepository
	Settings() SettingRepository

	// WithTransaction runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}

type pgStore struct {
	db DBTX
}

// NewStore creates a PostgreSQL-backed store over a pool (or anything that can begin transactions)
func NewStore(db DBTX) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Users() UserRepository                 { return NewUserRepository(s.db) }
func (s *pgStore) Categories() CategoryRepository        { return NewCategoryRepository(s.db) }
func (s *pgStore) Tasks() TaskRepository                 { return NewTaskRepository(s.db) }
func (s *pgStore) XPLogs() XPLogRepository               { return NewXPLogRepository(s.db) }
func (s *pgStore) Profiles() ProfileRepository           { return NewProfileRepository(s.db) }
func (s *pgStore) Achievements() AchievementRepository   { return NewAchievementRepository(s.db) }
func (s *pgStore) Reviews() ReviewRepository             { return NewReviewRepository(s.db) }
func (s *pgStore) Missions() MissionRepository           { return NewMissionRepository(s.db) }
func (s *pgStore) Leaderboards() LeaderboardRepository   { return NewLeaderboardRepository(s.db) }
func (s *pgStore) Notifications() NotificationRepository { return NewNotificationRepository(s.db) }
func (s *pgStore) Settings() SettingRepository           { return NewSettingRepository(s.db) }

// WithTransaction executes fn within a database transaction
func (s *pgStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapDBError(err, "begin_transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&pgStore{db: tx}); err != nil {
		tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapDBError(err, "commit_transaction")
	}
	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// mapDBError maps database errors to application errors
func mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", operation, models.ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", operation, models.ErrInvalidReference)
		case "23514", "22P02": // check_violation, invalid_text_representation
			return fmt.Errorf("%s: %w", operation, models.ErrInvalidInput)
		case "40001": // serialization_failure
			return fmt.Errorf("%s: %w", operation, models.ErrRetryable)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}

var errNoRows = pgx.ErrNoRows

// queryIDs collects a single text column
func queryIDs(ctx context.Context, db DBTX, operation, query string, args ...interface{}) ([]string, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err, operation)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapDBError(err, operation)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, operation)
	}
	return ids, nil
}

// queryInt runs a query returning a single integer such as COUNT(*) or COALESCE(SUM(...), 0)
func queryInt(ctx context.Context, db DBTX, operation, query string, args ...interface{}) (int, error) {
	var n int
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapDBError(err, operation)
	}
	return n, nil
}
