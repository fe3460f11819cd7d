package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// streakBonusEvery is the streak length cadence that pays a bonus
const streakBonusEvery = 7

// streakBonusPerDay is the bonus XP per streak day on a milestone
const streakBonusPerDay = 5

// UpdateStreak records activity for today and returns any milestone bonus XP.
// A second call on the same calendar day returns 0 and changes nothing.
func (e *gamificationEngine) UpdateStreak(ctx context.Context, userID string) (int, error) {
	var bonus int
	_, err := e.run(ctx, userID, func(p *progression) error {
		var err error
		bonus, err = p.updateStreak(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update streak: %w", err)
	}
	return bonus, nil
}

func (p *progression) updateStreak(ctx context.Context) (int, error) {
	today := p.e.today(p.now)
	profile := p.profile

	switch {
	case profile.LastActivityDate == nil:
		profile.CurrentStreak = 1
	case utils.DaysBetween(*profile.LastActivityDate, today) == 0:
		return 0, nil
	case utils.DaysBetween(*profile.LastActivityDate, today) == 1:
		profile.CurrentStreak++
	default:
		profile.CurrentStreak = 1
	}

	if profile.CurrentStreak > profile.LongestStreak {
		profile.LongestStreak = profile.CurrentStreak
	}
	profile.LastActivityDate = &today

	if profile.CurrentStreak%streakBonusEvery != 0 {
		return 0, nil
	}
	bonus := profile.CurrentStreak * streakBonusPerDay
	description := fmt.Sprintf("%d-day streak bonus!", profile.CurrentStreak)
	if err := p.addXP(ctx, models.ActionStreakBonus, bonus, nil, description); err != nil {
		return 0, err
	}
	return bonus, nil
}

// RecalculateStreak rebuilds streak counters from the completion history.
// Unlike UpdateStreak it may lower longest_streak: the history is the source of truth.
func (e *gamificationEngine) RecalculateStreak(ctx context.Context, userID string) (*models.StreakSummary, error) {
	summary := &models.StreakSummary{}
	_, err := e.run(ctx, userID, func(p *progression) error {
		times, err := p.tx.Tasks().ListCompletionTimes(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list completions: %w", err)
		}
		current, longest, last := streakRuns(civilDays(times, e.loc))

		p.profile.CurrentStreak = current
		p.profile.LongestStreak = longest
		p.profile.LastActivityDate = last

		summary.CurrentStreak = current
		summary.LongestStreak = longest
		summary.LastActivity = last
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recalculate streak: %w", err)
	}
	return summary, nil
}

// civilDays maps instants to their sorted, distinct calendar days in loc
func civilDays(times []time.Time, loc *time.Location) []time.Time {
	seen := make(map[time.Time]bool, len(times))
	days := make([]time.Time, 0, len(times))
	for _, t := range times {
		d := utils.CivilDate(t, loc)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// streakRuns returns the final run length, the longest run and the last day of sorted distinct days
func streakRuns(days []time.Time) (current, longest int, last *time.Time) {
	if len(days) == 0 {
		return 0, 0, nil
	}
	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if utils.DaysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	lastDay := days[len(days)-1]
	return run, longest, &lastDay
}
