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

var xpLogCols = []string{"id", "user_id", "action", "xp_earned", "task_id", "description", "created_at"}

func TestXPLogCreate(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewXPLogRepository(conn)
	taskID := "t1"
	l := &models.XPLog{
		ID: "l1", UserID: "u1", Action: models.ActionTaskComplete, XPEarned: 45, TaskID: &taskID,
		Description: "Completed task: Inbox zero", CreatedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	insert := `INSERT INTO xp_logs`

	tests := []struct {
		Desc         string
		Error        error
		MockPrepFunc func()
	}{
		{
			Desc: "appended",
			MockPrepFunc: func() {
				conn.ExpectExec(insert).
					WithArgs(l.ID, l.UserID, "task_complete", l.XPEarned, l.TaskID, l.Description, l.CreatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			Desc:  "unknown task",
			Error: models.ErrInvalidReference,
			MockPrepFunc: func() {
				conn.ExpectExec(insert).
					WithArgs(l.ID, l.UserID, "task_complete", l.XPEarned, l.TaskID, l.Description, l.CreatedAt).
					WillReturnError(&pgconn.PgError{Code: "23503"})
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			err := repo.Create(ctx, l)
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, conn.ExpectationsWereMet())
		})
	}
}

func TestXPLogSumWithoutFilter(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.ExpectQuery(`SELECT COALESCE\(SUM\(xp_earned\), 0\) FROM xp_logs WHERE user_id = \$1$`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(0))

	total, err := repository.NewXPLogRepository(conn).Sum(context.Background(), "u1", models.XPLogFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestXPLogReads(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewXPLogRepository(conn)
	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	taskID := "t1"

	t.Run("task completion entry", func(t *testing.T) {
		conn.ExpectQuery(`WHERE task_id = \$1 AND action = 'task_complete'`).
			WithArgs("t1").
			WillReturnRows(pgxmock.NewRows(xpLogCols).AddRow("l1", "u1", "task_complete", 45, &taskID, "done", at))

		l, err := repo.FindTaskCompletion(ctx, "t1")
		assert.NoError(t, err)
		assert.Equal(t, models.ActionTaskComplete, l.Action)
		if assert.NotNil(t, l.TaskID) {
			assert.Equal(t, "t1", *l.TaskID)
		}
	})

	t.Run("no completion entry", func(t *testing.T) {
		conn.ExpectQuery(`WHERE task_id = \$1 AND action = 'task_complete'`).
			WithArgs("t2").
			WillReturnRows(pgxmock.NewRows(xpLogCols))

		_, err := repo.FindTaskCompletion(ctx, "t2")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("history newest first", func(t *testing.T) {
		conn.ExpectQuery(`WHERE user_id = \$1\s+ORDER BY created_at DESC\s+LIMIT \$2`).
			WithArgs("u1", 2).
			WillReturnRows(pgxmock.NewRows(xpLogCols).
				AddRow("l2", "u1", "streak_bonus", 50, nil, "7-day streak bonus", at.Add(time.Minute)).
				AddRow("l1", "u1", "task_complete", 45, &taskID, "done", at))

		logs, err := repo.ListByUser(ctx, "u1", 2)
		assert.NoError(t, err)
		if assert.Len(t, logs, 2) {
			assert.Equal(t, models.ActionStreakBonus, logs[0].Action)
			assert.Nil(t, logs[0].TaskID)
		}
	})

	t.Run("history db error", func(t *testing.T) {
		conn.ExpectQuery(`FROM xp_logs`).WithArgs("u1", 2).WillReturnError(errors.New("db error"))

		_, err := repo.ListByUser(ctx, "u1", 2)
		assert.Error(t, err)
	})

	assert.NoError(t, conn.ExpectationsWereMet())
}
