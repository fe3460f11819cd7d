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

var reviewCols = []string{
	"id", "user_id", "week_start", "week_end", "total_tasks", "total_xp",
	"early_completions", "on_time_completions", "late_completions",
	"performance_score", "suggestions", "category_breakdown", "created_at",
}

func TestReviewUpsert(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewReviewRepository(conn)
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	firstRun := weekStart.Add(26 * time.Hour)
	newReview := func() *models.WeeklyReview {
		return &models.WeeklyReview{
			ID: "r-new", UserID: "u1", WeekStart: weekStart, WeekEnd: weekStart.AddDate(0, 0, 6),
			TotalTasks: 2, TotalXP: 80, EarlyCompletions: 1, OnTimeCompletions: 1, PerformanceScore: 70,
			Suggestions: "Keep going",
			CategoryBreakdown: map[string]models.CategoryStat{
				"Work": {Count: 2, TotalXP: 80},
			},
			CreatedAt: weekStart.AddDate(0, 0, 3),
		}
	}
	upsert := `ON CONFLICT \(user_id, week_start\) DO UPDATE`

	tests := []struct {
		Desc         string
		WantID       string
		WantCreated  time.Time
		Error        error
		MockPrepFunc func(rv *models.WeeklyReview)
	}{
		{
			Desc:        "first review of the week",
			WantID:      "r-new",
			WantCreated: weekStart.AddDate(0, 0, 3),
			MockPrepFunc: func(rv *models.WeeklyReview) {
				conn.ExpectQuery(upsert).
					WithArgs(rv.ID, rv.UserID, rv.WeekStart, rv.WeekEnd, rv.TotalTasks, rv.TotalXP,
						rv.EarlyCompletions, rv.OnTimeCompletions, rv.LateCompletions,
						rv.PerformanceScore, rv.Suggestions, []byte(`{"Work":{"count":2,"total_xp":80}}`), rv.CreatedAt).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("r-new", rv.CreatedAt))
			},
		},
		{
			Desc:        "regenerated the same week",
			WantID:      "r-old",
			WantCreated: firstRun,
			MockPrepFunc: func(rv *models.WeeklyReview) {
				conn.ExpectQuery(upsert).
					WithArgs(rv.ID, rv.UserID, rv.WeekStart, rv.WeekEnd, rv.TotalTasks, rv.TotalXP,
						rv.EarlyCompletions, rv.OnTimeCompletions, rv.LateCompletions,
						rv.PerformanceScore, rv.Suggestions, pgxmock.AnyArg(), rv.CreatedAt).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("r-old", firstRun))
			},
		},
		{
			Desc:  "db error",
			Error: errors.New("db error"),
			MockPrepFunc: func(rv *models.WeeklyReview) {
				conn.ExpectQuery(upsert).WillReturnError(errors.New("db error"))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			rv := newReview()
			tc.MockPrepFunc(rv)
			err := repo.Upsert(ctx, rv)
			if tc.Error != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.WantID, rv.ID)
				assert.Equal(t, tc.WantCreated, rv.CreatedAt)
			}
			assert.NoError(t, conn.ExpectationsWereMet())
		})
	}
}

func TestReviewGetByWeekDecodesBreakdown(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := context.Background()
	repo := repository.NewReviewRepository(conn)
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	query := `FROM weekly_reviews\s+WHERE user_id = \$1 AND week_start = \$2`

	t.Run("found", func(t *testing.T) {
		conn.ExpectQuery(query).
			WithArgs("u1", weekStart).
			WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(
				"r1", "u1", weekStart, weekStart.AddDate(0, 0, 6), 3, 120, 2, 1, 0, 85, "Great week",
				[]byte(`{"Health":{"count":1,"total_xp":40},"Work":{"count":2,"total_xp":80}}`), weekStart,
			))

		rv, err := repo.GetByWeek(ctx, "u1", weekStart)
		assert.NoError(t, err)
		assert.Equal(t, models.CategoryStat{Count: 2, TotalXP: 80}, rv.CategoryBreakdown["Work"])
		assert.Len(t, rv.CategoryBreakdown, 2)
	})

	t.Run("empty breakdown", func(t *testing.T) {
		conn.ExpectQuery(query).
			WithArgs("u1", weekStart).
			WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(
				"r1", "u1", weekStart, weekStart.AddDate(0, 0, 6), 0, 0, 0, 0, 0, 0, "", []byte(nil), weekStart,
			))

		rv, err := repo.GetByWeek(ctx, "u1", weekStart)
		assert.NoError(t, err)
		assert.NotNil(t, rv.CategoryBreakdown)
		assert.Empty(t, rv.CategoryBreakdown)
	})

	t.Run("missing", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs("u1", weekStart).WillReturnRows(pgxmock.NewRows(reviewCols))

		_, err := repo.GetByWeek(ctx, "u1", weekStart)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	assert.NoError(t, conn.ExpectationsWereMet())
}
