package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
)

func TestUnlockAchievement(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewAchievementRepository(conn)
	ua := &models.UserAchievement{
		ID: "ua1", UserID: "u1", AchievementID: "a1", Progress: 10,
		UnlockedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	insert := `INSERT INTO user_achievements`

	tests := []struct {
		Desc         string
		Error        error
		MockPrepFunc func()
	}{
		{
			Desc: "unlocked",
			MockPrepFunc: func() {
				conn.ExpectExec(insert).
					WithArgs(ua.ID, ua.UserID, ua.AchievementID, ua.Progress, ua.UnlockedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			Desc:  "second unlock",
			Error: models.ErrAlreadyUnlocked,
			MockPrepFunc: func() {
				conn.ExpectExec(insert).
					WithArgs(ua.ID, ua.UserID, ua.AchievementID, ua.Progress, ua.UnlockedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
		},
		{
			Desc:  "unknown achievement",
			Error: models.ErrInvalidReference,
			MockPrepFunc: func() {
				conn.ExpectExec(insert).
					WithArgs(ua.ID, ua.UserID, ua.AchievementID, ua.Progress, ua.UnlockedAt).
					WillReturnError(&pgconn.PgError{Code: "23503"})
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			err := repo.Unlock(ctx, ua)
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, conn.ExpectationsWereMet())
		})
	}
}
