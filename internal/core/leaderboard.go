package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"taskquest/internal/repository"
	"taskquest/pkg/logger"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

const defaultContextRange = 5

// LeaderboardService writes ranked snapshots and serves reads over the newest one
type LeaderboardService interface {
	UpdateRankings(ctx context.Context, period models.LeaderboardPeriod) (*models.RankingResult, error)
	GetLeaderboard(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardEntry, error)
	GetUserRank(ctx context.Context, userID string, period models.LeaderboardPeriod) (*models.LeaderboardEntry, error)
	GetUserPositionContext(ctx context.Context, userID string, period models.LeaderboardPeriod, radius int) ([]models.PositionEntry, error)
}

type leaderboardService struct {
	store repository.Store
	clock Clock
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(store repository.Store, clock Clock) LeaderboardService {
	if clock == nil {
		clock = SystemClock()
	}
	return &leaderboardService{store: store, clock: clock}
}

// UpdateRankings scores every user active in the period and writes a fresh snapshot.
// One user's failure is recorded in Errors and does not stop the others.
func (s *leaderboardService) UpdateRankings(ctx context.Context, period models.LeaderboardPeriod) (*models.RankingResult, error) {
	now := s.clock.Now().Truncate(time.Microsecond)
	start := period.WindowStart(now)
	// the window includes now itself
	end := now.Add(time.Microsecond)

	board, err := s.store.Leaderboards().GetOrCreateType(ctx, &models.LeaderboardType{
		ID:              utils.NewID(),
		Name:            period.BoardName(),
		LeaderboardType: period.Kind(),
		ResetFrequency:  period.ResetFrequency(),
		IsActive:        true,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	users, err := s.store.Tasks().ListUsersCompletedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	sort.Strings(users)

	result := &models.RankingResult{
		Period:        period,
		LeaderboardID: board.ID,
		PeriodStart:   start,
		PeriodEnd:     now,
	}

	entries := make([]*models.LeaderboardEntry, 0, len(users))
	for _, userID := range users {
		entry, err := s.score(ctx, userID, start, end)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", userID, err))
			continue
		}
		entry.LeaderboardTypeID = board.ID
		entry.PeriodStart = start
		entry.PeriodEnd = now
		entry.UpdatedAt = now
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	for i, entry := range entries {
		entry.Rank = i + 1
		if err := s.store.Leaderboards().UpsertEntry(ctx, entry); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", entry.UserID, err))
			continue
		}
		result.EntriesWritten++
	}

	logger.WithFields(map[string]interface{}{
		"component": "leaderboard",
		"period":    string(period),
		"entries":   result.EntriesWritten,
		"failed":    len(result.Errors),
	}).Info("rankings updated")
	return result, nil
}

// score builds one user's entry for [start, end)
func (s *leaderboardService) score(ctx context.Context, userID string, start, end time.Time) (*models.LeaderboardEntry, error) {
	tasks, err := s.store.Tasks().CountCompletedBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	xp, err := s.store.XPLogs().Sum(ctx, userID, models.XPLogFilter{From: &start, To: &end})
	if err != nil {
		return nil, err
	}

	streak := 0
	punctuality := 100.0
	profile, err := s.store.Profiles().Get(ctx, userID)
	switch {
	case err == nil:
		streak = profile.CurrentStreak
		punctuality = punctualityRate(profile)
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	return &models.LeaderboardEntry{
		ID:              utils.NewID(),
		UserID:          userID,
		Score:           tasks*10 + xp + streak*5 + int(punctuality*2),
		TasksCompleted:  tasks,
		TotalXP:         xp,
		StreakCount:     streak,
		PunctualityRate: punctuality,
	}, nil
}

// punctualityRate is the unrounded share of timed completions that were not late
func punctualityRate(p *models.ProgressProfile) float64 {
	timed := p.TotalEarlyCompletions + p.TotalOnTimeCompletions + p.TotalLateCompletions
	if timed == 0 {
		return 100
	}
	return float64(p.TotalEarlyCompletions+p.TotalOnTimeCompletions) / float64(timed) * 100
}

// latest returns the end of the newest snapshot; ok is false when none was written yet
func (s *leaderboardService) latest(ctx context.Context, period models.LeaderboardPeriod) (time.Time, bool, error) {
	end, err := s.store.Leaderboards().LatestPeriodEnd(ctx, period.Kind())
	if errors.Is(err, models.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to find latest snapshot: %w", err)
	}
	return end, true, nil
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardEntry, error) {
	end, ok, err := s.latest(ctx, period)
	if err != nil || !ok {
		return []*models.LeaderboardEntry{}, err
	}
	entries, err := s.store.Leaderboards().ListSnapshot(ctx, period.Kind(), end, utils.ValidateLimit(limit, 50, 100))
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	return entries, nil
}

// GetUserRank returns the user's row in the newest snapshot, or ErrNotFound when they are not on it
func (s *leaderboardService) GetUserRank(ctx context.Context, userID string, period models.LeaderboardPeriod) (*models.LeaderboardEntry, error) {
	end, ok, err := s.latest(ctx, period)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotFound
	}
	entry, err := s.store.Leaderboards().LatestUserEntry(ctx, period.Kind(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user rank: %w", err)
	}
	if !entry.PeriodEnd.Equal(end) {
		return nil, models.ErrNotFound
	}
	return entry, nil
}

// GetUserPositionContext returns the rows within radius ranks of the user, flagging the user's own row
func (s *leaderboardService) GetUserPositionContext(ctx context.Context, userID string, period models.LeaderboardPeriod, radius int) ([]models.PositionEntry, error) {
	if radius <= 0 {
		radius = defaultContextRange
	}
	me, err := s.GetUserRank(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Leaderboards().ListRankRange(ctx, period.Kind(), me.PeriodEnd, max(1, me.Rank-radius), me.Rank+radius)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard context: %w", err)
	}
	out := make([]models.PositionEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PositionEntry{LeaderboardEntry: row, IsCurrentUser: row.UserID == userID})
	}
	return out, nil
}
