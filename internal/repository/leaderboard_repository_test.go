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

var entryCols = []string{
	"id", "leaderboard_type_id", "user_id", "username", "score", "rank",
	"tasks_completed", "total_xp", "streak_count", "punctuality_rate",
	"period_start", "period_end", "updated_at",
}

func entryRow(rows *pgxmock.Rows, userID string, rank, score int, start, end time.Time) *pgxmock.Rows {
	return rows.AddRow("e-"+userID, "lt1", userID, "user-"+userID, score, rank, 3, score, 2, 100.0, start, end, end)
}

func TestLatestPeriodEnd(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewLeaderboardRepository(conn)
	end := time.Date(2026, 3, 2, 10, 0, 0, 1000, time.UTC)
	query := `SELECT MAX\(e.period_end\)`

	tests := []struct {
		Desc         string
		Want         time.Time
		Error        error
		MockPrepFunc func()
	}{
		{
			Desc: "newest snapshot",
			Want: end,
			MockPrepFunc: func() {
				conn.ExpectQuery(query).WithArgs("weekly").
					WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&end))
			},
		},
		{
			Desc:  "never refreshed",
			Error: models.ErrNotFound,
			MockPrepFunc: func() {
				conn.ExpectQuery(query).WithArgs("weekly").
					WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(nil))
			},
		},
		{
			Desc:  "db error",
			Error: errors.New("db error"),
			MockPrepFunc: func() {
				conn.ExpectQuery(query).WithArgs("weekly").WillReturnError(errors.New("db error"))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			got, err := repo.LatestPeriodEnd(ctx, models.LeaderboardWeekly)
			switch {
			case errors.Is(tc.Error, models.ErrNotFound):
				assert.ErrorIs(t, err, models.ErrNotFound)
			case tc.Error != nil:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
				assert.Equal(t, tc.Want, got)
			}
			assert.NoError(t, conn.ExpectationsWereMet())
		})
	}
}

func TestSnapshotReads(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewLeaderboardRepository(conn)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Hour)

	t.Run("top of snapshot", func(t *testing.T) {
		rows := entryRow(pgxmock.NewRows(entryCols), "u1", 1, 300, start, end)
		conn.ExpectQuery(`WHERE lt.leaderboard_type = \$1 AND e.period_end = \$2\s+ORDER BY e.rank\s+LIMIT \$3`).
			WithArgs("weekly", end, 10).
			WillReturnRows(entryRow(rows, "u2", 2, 120, start, end))

		entries, err := repo.ListSnapshot(ctx, models.LeaderboardWeekly, end, 10)
		assert.NoError(t, err)
		if assert.Len(t, entries, 2) {
			assert.Equal(t, "u1", entries[0].UserID)
			assert.Equal(t, "user-u1", entries[0].Username)
			assert.Equal(t, 2, entries[1].Rank)
		}
	})

	t.Run("rank range", func(t *testing.T) {
		conn.ExpectQuery(`AND e.rank BETWEEN \$3 AND \$4`).
			WithArgs("global", end, 1, 3).
			WillReturnRows(entryRow(pgxmock.NewRows(entryCols), "u2", 2, 120, start, end))

		entries, err := repo.ListRankRange(ctx, models.LeaderboardGlobal, end, 1, 3)
		assert.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("user entry missing", func(t *testing.T) {
		conn.ExpectQuery(`AND e.user_id = \$2\s+ORDER BY e.period_end DESC`).
			WithArgs("daily", "ghost").
			WillReturnRows(pgxmock.NewRows(entryCols))

		_, err := repo.LatestUserEntry(ctx, models.LeaderboardDaily, "ghost")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	assert.NoError(t, conn.ExpectationsWereMet())
}

func TestUpsertEntryKeepsID(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	e := &models.LeaderboardEntry{
		ID: "new", LeaderboardTypeID: "lt1", UserID: "u1", Score: 300, Rank: 1, TasksCompleted: 3,
		TotalXP: 300, StreakCount: 2, PunctualityRate: 100, PeriodStart: start, PeriodEnd: start.Add(time.Hour),
		UpdatedAt: start.Add(time.Hour),
	}
	conn.ExpectQuery(`ON CONFLICT \(leaderboard_type_id, user_id, period_start\) DO UPDATE`).
		WithArgs(e.ID, e.LeaderboardTypeID, e.UserID, e.Score, e.Rank, e.TasksCompleted,
			e.TotalXP, e.StreakCount, e.PunctualityRate, e.PeriodStart, e.PeriodEnd, e.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing"))

	assert.NoError(t, repository.NewLeaderboardRepository(conn).UpsertEntry(context.Background(), e))
	assert.Equal(t, "existing", e.ID)
	assert.NoError(t, conn.ExpectationsWereMet())
}
