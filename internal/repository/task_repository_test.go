package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
)

func TestMarkCompleted(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewTaskRepository(conn)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	update := `UPDATE tasks`
	count := `SELECT COUNT\(\*\) FROM tasks WHERE id = \$1`

	tests := []struct {
		Desc         string
		Error        error
		MockPrepFunc func()
	}{
		{
			Desc: "completed",
			MockPrepFunc: func() {
				conn.ExpectExec(update).WithArgs("t1", at).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			Desc:  "already completed",
			Error: models.ErrTaskAlreadyCompleted,
			MockPrepFunc: func() {
				conn.ExpectExec(update).WithArgs("t1", at).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				conn.ExpectQuery(count).WithArgs("t1").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
			},
		},
		{
			Desc:  "missing task",
			Error: models.ErrNotFound,
			MockPrepFunc: func() {
				conn.ExpectExec(update).WithArgs("t1", at).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				conn.ExpectQuery(count).WithArgs("t1").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
			},
		},
		{
			Desc:  "check violation",
			Error: models.ErrInvalidInput,
			MockPrepFunc: func() {
				conn.ExpectExec(update).WithArgs("t1", at).WillReturnError(&pgconn.PgError{Code: "23514"})
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			err := repo.MarkCompleted(ctx, "t1", at)
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, conn.ExpectationsWereMet())
		})
	}
}

func TestCountCompletedBetween(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewTaskRepository(conn)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	t.Run("counted", func(t *testing.T) {
		conn.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM tasks`).
			WithArgs("u1", from, to).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))
		n, err := repo.CountCompletedBetween(ctx, "u1", from, to)
		assert.NoError(t, err)
		assert.Equal(t, 4, n)
	})
	t.Run("db error", func(t *testing.T) {
		conn.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM tasks`).
			WithArgs("u1", from, to).
			WillReturnError(errors.New("db error"))
		_, err := repo.CountCompletedBetween(ctx, "u1", from, to)
		assert.Error(t, err)
	})
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestListUsersCompletedBetween(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	conn.ExpectQuery(`SELECT DISTINCT user_id`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("alice").AddRow("bob"))

	ids, err := repository.NewTaskRepository(conn).ListUsersCompletedBetween(context.Background(), from, to)
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, ids)
	assert.NoError(t, conn.ExpectationsWereMet())
}
