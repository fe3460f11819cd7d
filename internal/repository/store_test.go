package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
)

func TestWithTransaction(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	store := repository.NewStore(conn)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("commit", func(t *testing.T) {
		conn.ExpectBegin()
		conn.ExpectExec(`UPDATE tasks`).WithArgs("t1", at).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		conn.ExpectCommit()

		err := store.WithTransaction(ctx, func(tx repository.Store) error {
			return tx.Tasks().MarkCompleted(ctx, "t1", at)
		})
		assert.NoError(t, err)
		assert.NoError(t, conn.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		conn.ExpectBegin()
		conn.ExpectRollback()

		err := store.WithTransaction(ctx, func(tx repository.Store) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, conn.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		conn.ExpectBegin().WillReturnError(errors.New("pool closed"))

		err := store.WithTransaction(ctx, func(tx repository.Store) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.Error(t, err)
		assert.NoError(t, conn.ExpectationsWereMet())
	})
}

func TestXPLogSumBuildsFilter(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	action := models.ActionTaskComplete
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	conn.ExpectQuery(`AND action = \$2 AND created_at >= \$3 AND created_at < \$4`).
		WithArgs("u1", "task_complete", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(130))

	total, err := repository.NewXPLogRepository(conn).Sum(context.Background(), "u1", models.XPLogFilter{
		Action: &action, From: &from, To: &to,
	})
	assert.NoError(t, err)
	assert.Equal(t, 130, total)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestNotificationCleanup(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	conn.ExpectExec(`DELETE FROM notifications WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repository.NewNotificationRepository(conn).DeleteOlderThan(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestMissionUpdateMissing(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	m := &models.UserMission{ID: "m1", CurrentProgress: 2, Status: models.MissionActive}
	conn.ExpectExec(`UPDATE user_missions`).
		WithArgs(m.ID, m.CurrentProgress, "active", m.CompletedAt, m.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repository.NewMissionRepository(conn).Update(context.Background(), m)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestSetSetting(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	s := &models.SystemSetting{
		Key: "last_maintenance_run", Value: "2026-03-02T00:00:00Z", DataType: models.SettingString,
		UpdatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	conn.ExpectExec(`INSERT INTO system_settings`).
		WithArgs(s.Key, s.Value, "string", s.Description, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repository.NewSettingRepository(conn).Set(context.Background(), s))
	assert.NoError(t, conn.ExpectationsWereMet())
}
