package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"taskquest/internal/repository"
	"taskquest/pkg/logger"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

const (
	// MaxActiveMissions caps how many missions a user may hold at once
	MaxActiveMissions = 5

	minDailyMissions    = 3
	maxDailyMissions    = 5
	maxGeneratedPreview = 5
	repeatCooldownDays  = 7
)

// MissionService hands out missions and advances them as the user completes work
type MissionService interface {
	// WithStore returns a service whose writes join the caller's transaction
	WithStore(tx repository.Store) MissionService

	AssignDailyMissions(ctx context.Context, userID string) ([]*models.UserMission, error)
	UpdateMissionProgress(ctx context.Context, userID string, missionType models.MissionType, value int) ([]*models.UserMission, error)
	UpdateCategoryProgress(ctx context.Context, userID, categoryID string, value int) ([]*models.UserMission, error)
	UpdateStreakProgress(ctx context.Context, userID string, streak int) ([]*models.UserMission, error)
	GetUserMissions(ctx context.Context, userID string, filter models.MissionFilter) ([]*models.UserMission, error)

	AcceptMission(ctx context.Context, userID, templateID string) (*models.AcceptResult, error)
	AbandonMission(ctx context.Context, userID, missionID string) (*models.UserMission, error)
	FailExpiredMissions(ctx context.Context) (int, error)
	AvailableMissions(ctx context.Context, userID string) ([]*models.MissionTemplate, error)
	GenerateRandomMissions(ctx context.Context, userID string, count int) ([]*models.MissionTemplate, error)
}

// lockedRand guards a *rand.Rand, which is not safe for concurrent use
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

type missionService struct {
	store         repository.Store
	engine        GamificationEngine
	notifications NotificationService
	clock         Clock
	loc           *time.Location
	rng           *lockedRand
}

// NewMissionService creates a mission service. A nil rng is seeded from the clock.
func NewMissionService(store repository.Store, engine GamificationEngine, notifications NotificationService, rng *rand.Rand) MissionService {
	if rng == nil {
		rng = rand.New(rand.NewSource(engine.Now().UnixNano()))
	}
	return &missionService{
		store:         store,
		engine:        engine,
		notifications: notifications,
		clock:         clockFunc(engine.Now),
		loc:           engine.Location(),
		rng:           &lockedRand{r: rng},
	}
}

// clockFunc adapts a func to Clock so services share the engine's clock
type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

func (s *missionService) WithStore(tx repository.Store) MissionService {
	return &missionService{
		store:         tx,
		engine:        s.engine.WithStore(tx),
		notifications: s.notifications.WithStore(tx),
		clock:         s.clock,
		loc:           s.loc,
		rng:           s.rng,
	}
}

// AssignDailyMissions gives the user 3 to 5 missions for today.
// Calling it again on the same day returns the missions already assigned.
func (s *missionService) AssignDailyMissions(ctx context.Context, userID string) ([]*models.UserMission, error) {
	var assigned []*models.UserMission
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		now := s.clock.Now()
		today := utils.CivilDate(now, s.loc)
		cadence := models.CadenceDaily

		// the profile row lock serializes concurrent assignments for one user
		profile, err := tx.Profiles().Ensure(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		existing, err := tx.Missions().List(ctx, userID, models.MissionFilter{Cadence: &cadence, AssignedOn: &today})
		if err != nil {
			return fmt.Errorf("failed to list daily missions: %w", err)
		}
		if len(existing) > 0 {
			assigned = existing
			return nil
		}

		templates, err := s.eligibleTemplates(ctx, tx, profile.CurrentLevel, true)
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			return nil
		}

		rate, err := averageCompletionRate(ctx, tx, userID)
		if err != nil {
			return err
		}

		count := minDailyMissions + s.rng.Intn(maxDailyMissions-minDailyMissions+1)
		endOfDay := utils.StartOfDay(now, s.loc).AddDate(0, 0, 1)
		for _, t := range s.weightedSample(templates, count) {
			m := newUserMission(userID, t, models.CadenceDaily, now, today, endOfDay)
			m.TargetValue = missionTarget(t.TargetValue, profile.CurrentLevel, rate)
			if err := tx.Missions().Create(ctx, m); err != nil {
				return fmt.Errorf("failed to create daily mission: %w", err)
			}
			assigned = append(assigned, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign daily missions: %w", err)
	}
	return assigned, nil
}

// missionTarget scales a template target by level and by how reliably the user finishes tasks
func missionTarget(base, level int, avgRate float64) int {
	target := int(float64(base) * (1 + float64(level-1)*0.1) * (1 + (avgRate - 0.5)))
	if target < 1 {
		return 1
	}
	return target
}

// averageCompletionRate is completed/total tasks, or 0.5 for a user with no tasks
func averageCompletionRate(ctx context.Context, tx repository.Store, userID string) (float64, error) {
	total, err := tx.Tasks().CountAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	if total == 0 {
		return 0.5, nil
	}
	done, err := tx.Tasks().CountCompleted(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return float64(done) / float64(total), nil
}

// eligibleTemplates lists active templates for level. Daily draws only take one-day templates.
func (s *missionService) eligibleTemplates(ctx context.Context, tx repository.Store, level int, daily bool) ([]*models.MissionTemplate, error) {
	all, err := tx.Missions().ListTemplates(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list mission templates: %w", err)
	}
	var out []*models.MissionTemplate
	for _, t := range all {
		if !t.FitsLevel(level) || (daily && !t.IsDaily()) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// weightedSample draws up to n templates without replacement, each pick proportional to weight
func (s *missionService) weightedSample(pool []*models.MissionTemplate, n int) []*models.MissionTemplate {
	left := append([]*models.MissionTemplate(nil), pool...)
	var picked []*models.MissionTemplate
	for len(picked) < n && len(left) > 0 {
		total := 0
		for _, t := range left {
			total += templateWeight(t)
		}
		roll := s.rng.Intn(total)
		for i, t := range left {
			roll -= templateWeight(t)
			if roll < 0 {
				picked = append(picked, t)
				left = append(left[:i], left[i+1:]...)
				break
			}
		}
	}
	return picked
}

func templateWeight(t *models.MissionTemplate) int {
	if t.Weight < 1 {
		return 1
	}
	return t.Weight
}

func newUserMission(userID string, t *models.MissionTemplate, cadence models.MissionCadence, now, assignedOn, end time.Time) *models.UserMission {
	return &models.UserMission{
		ID:              utils.NewID(),
		UserID:          userID,
		TemplateID:      t.ID,
		Title:           t.Name,
		Description:     t.Description,
		MissionType:     t.MissionType,
		Cadence:         cadence,
		CategoryID:      t.CategoryID,
		TargetValue:     t.TargetValue,
		Status:          models.MissionActive,
		XPReward:        t.XPReward,
		BonusMultiplier: t.BonusMultiplier,
		AssignedDate:    assignedOn,
		StartDate:       now,
		EndDate:         end,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UpdateMissionProgress advances every active mission of missionType by value and
// returns the missions that completed in this call
func (s *missionService) UpdateMissionProgress(ctx context.Context, userID string, missionType models.MissionType, value int) ([]*models.UserMission, error) {
	if value <= 0 {
		return nil, nil
	}
	return s.advance(ctx, userID, missionType, nil, func(m *models.UserMission) int {
		return m.CurrentProgress + value
	})
}

// UpdateCategoryProgress advances category_focus missions bound to categoryID or to no category
func (s *missionService) UpdateCategoryProgress(ctx context.Context, userID, categoryID string, value int) ([]*models.UserMission, error) {
	if value <= 0 {
		return nil, nil
	}
	match := func(m *models.UserMission) bool {
		return m.CategoryID == nil || *m.CategoryID == categoryID
	}
	return s.advance(ctx, userID, models.MissionCategoryFocus, match, func(m *models.UserMission) int {
		return m.CurrentProgress + value
	})
}

// UpdateStreakProgress raises streak missions to the user's current streak.
// A broken streak never lowers progress; only a longer run moves it.
func (s *missionService) UpdateStreakProgress(ctx context.Context, userID string, streak int) ([]*models.UserMission, error) {
	if streak <= 0 {
		return nil, nil
	}
	return s.advance(ctx, userID, models.MissionStreak, nil, func(m *models.UserMission) int {
		return max(m.CurrentProgress, streak)
	})
}

func (s *missionService) advance(ctx context.Context, userID string, missionType models.MissionType, match func(*models.UserMission) bool, next func(*models.UserMission) int) ([]*models.UserMission, error) {
	var completed []*models.UserMission
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		bound := s.WithStore(tx).(*missionService)
		now := s.clock.Now()
		status := models.MissionActive

		missions, err := tx.Missions().List(ctx, userID, models.MissionFilter{MissionType: &missionType, Status: &status})
		if err != nil {
			return fmt.Errorf("failed to list active missions: %w", err)
		}

		for _, m := range missions {
			if match != nil && !match(m) {
				continue
			}
			if m.IsExpired(now) {
				if err := bound.fail(ctx, tx, m, now); err != nil {
					return err
				}
				continue
			}

			progress := min(next(m), m.TargetValue)
			if progress == m.CurrentProgress {
				continue
			}
			m.CurrentProgress = progress
			m.UpdatedAt = now
			if m.CurrentProgress >= m.TargetValue {
				m.Status = models.MissionCompleted
				m.CompletedAt = &now
			}
			if err := tx.Missions().Update(ctx, m); err != nil {
				return fmt.Errorf("failed to update mission: %w", err)
			}
			if m.Status == models.MissionCompleted {
				if err := bound.reward(ctx, m); err != nil {
					return err
				}
				completed = append(completed, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update mission progress: %w", err)
	}
	return completed, nil
}

// reward pays a completed mission and notifies the user
func (s *missionService) reward(ctx context.Context, m *models.UserMission) error {
	result, err := s.engine.AwardMissionXP(ctx, m.UserID, m)
	if err != nil {
		return err
	}
	_, err = s.notifications.Create(ctx, m.UserID, models.NotificationMissionCompleted,
		"Mission Completed!",
		fmt.Sprintf("You completed %q and earned %d XP!", m.Title, result.XPEarned),
		map[string]interface{}{"mission_id": m.ID, "xp_earned": result.XPEarned})
	if err != nil {
		return err
	}
	return notifyProgress(ctx, s.notifications, m.UserID, result)
}

func (s *missionService) fail(ctx context.Context, tx repository.Store, m *models.UserMission, now time.Time) error {
	m.Status = models.MissionFailed
	m.UpdatedAt = now
	if err := tx.Missions().Update(ctx, m); err != nil {
		return fmt.Errorf("failed to fail mission: %w", err)
	}
	_, err := s.notifications.Create(ctx, m.UserID, models.NotificationMissionFailed,
		"Mission Failed",
		fmt.Sprintf("Mission %q has expired.", m.Title),
		map[string]interface{}{"mission_id": m.ID})
	return err
}

// GetUserMissions lists the user's missions matching filter
func (s *missionService) GetUserMissions(ctx context.Context, userID string, filter models.MissionFilter) ([]*models.UserMission, error) {
	missions, err := s.store.Missions().List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	return missions, nil
}

// AcceptMission starts a template for the user. Level and capacity rejections come back as Accepted=false.
func (s *missionService) AcceptMission(ctx context.Context, userID, templateID string) (*models.AcceptResult, error) {
	result := &models.AcceptResult{}
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		now := s.clock.Now()
		template, err := tx.Missions().GetTemplate(ctx, templateID)
		if err != nil {
			return fmt.Errorf("failed to get mission template: %w", err)
		}
		if !template.IsActive {
			return fmt.Errorf("mission template %s is inactive: %w", templateID, models.ErrNotFound)
		}
		profile, err := tx.Profiles().Ensure(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		switch {
		case profile.CurrentLevel < template.MinUserLevel:
			result.Reason = "Insufficient level"
			return nil
		case template.MaxUserLevel != nil && profile.CurrentLevel > *template.MaxUserLevel:
			result.Reason = "Level too high for this mission"
			return nil
		}
		active, err := tx.Missions().CountActive(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count active missions: %w", err)
		}
		if active >= MaxActiveMissions {
			result.Reason = "Maximum active missions reached"
			return nil
		}

		days := max(template.DurationDays, 1)
		m := newUserMission(userID, template, models.CadenceAccepted, now, utils.CivilDate(now, s.loc), now.AddDate(0, 0, days))
		if err := tx.Missions().Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create mission: %w", err)
		}
		if _, err := s.notifications.WithStore(tx).Create(ctx, userID, models.NotificationMissionAccepted,
			"New Mission Accepted!",
			fmt.Sprintf("You accepted the mission %q. Complete it within %d days!", template.Name, days),
			map[string]interface{}{"mission_id": m.ID}); err != nil {
			return err
		}
		result.Accepted = true
		result.Mission = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to accept mission: %w", err)
	}
	return result, nil
}

// AbandonMission gives up an active mission the user owns
func (s *missionService) AbandonMission(ctx context.Context, userID, missionID string) (*models.UserMission, error) {
	var out *models.UserMission
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		m, err := tx.Missions().GetByID(ctx, missionID)
		if err != nil {
			return err
		}
		if m.UserID != userID {
			return models.ErrNotFound
		}
		if !m.Status.CanTransitionTo(models.MissionAbandoned) {
			return models.ErrMissionNotActive
		}
		m.Status = models.MissionAbandoned
		m.UpdatedAt = s.clock.Now()
		if err := tx.Missions().Update(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to abandon mission: %w", err)
	}
	return out, nil
}

// FailExpiredMissions fails every active mission past its end date and returns how many it failed
func (s *missionService) FailExpiredMissions(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.store.Missions().ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired missions: %w", err)
	}

	failed := 0
	var errs []error
	for _, m := range expired {
		err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
			return s.WithStore(tx).(*missionService).fail(ctx, tx, m, now)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("mission %s: %w", m.ID, err))
			continue
		}
		failed++
	}
	if len(errs) > 0 {
		logger.Maintenance("fail_expired_missions", failed, len(errs))
		return failed, errors.Join(errs...)
	}
	return failed, nil
}

// AvailableMissions lists templates the user could accept now.
// Non-repeatable templates completed in the last week are left out; a user at capacity gets none.
func (s *missionService) AvailableMissions(ctx context.Context, userID string) ([]*models.MissionTemplate, error) {
	now := s.clock.Now()
	profile, err := s.engine.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.store.Missions().CountActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active missions: %w", err)
	}
	if active >= MaxActiveMissions {
		return []*models.MissionTemplate{}, nil
	}

	templates, err := s.eligibleTemplates(ctx, s.store, profile.CurrentLevel, false)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.Missions().CompletedTemplateIDsSince(ctx, userID, now.AddDate(0, 0, -repeatCooldownDays))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent missions: %w", err)
	}
	done := make(map[string]bool, len(recent))
	for _, id := range recent {
		done[id] = true
	}

	out := make([]*models.MissionTemplate, 0, len(templates))
	for _, t := range templates {
		if !t.IsRepeatable && done[t.ID] {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// GenerateRandomMissions previews up to five weighted template picks without assigning them
func (s *missionService) GenerateRandomMissions(ctx context.Context, userID string, count int) ([]*models.MissionTemplate, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive: %w", models.ErrInvalidInput)
	}
	count = min(count, maxGeneratedPreview)
	profile, err := s.engine.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	templates, err := s.eligibleTemplates(ctx, s.store, profile.CurrentLevel, false)
	if err != nil {
		return nil, err
	}
	return s.weightedSample(templates, count), nil
}
