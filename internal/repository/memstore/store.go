// Package memstore is an in-memory Progression Store. It keeps value copies of every
// entity so callers can never mutate stored state through a returned pointer, and it
// rolls a transaction back by restoring a snapshot taken when the transaction began.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
)

type data struct {
	mu            sync.RWMutex
	users         map[string]models.User
	categories    map[string]models.Category
	tasks         map[string]models.Task
	xpLogs        []models.XPLog
	profiles      map[string]models.ProgressProfile
	achievements  map[string]models.Achievement
	unlocks       []models.UserAchievement
	reviews       map[string]models.WeeklyReview
	templates     map[string]models.MissionTemplate
	missions      map[string]models.UserMission
	boardTypes    map[string]models.LeaderboardType
	entries       map[string]models.LeaderboardEntry
	notifications map[string]models.Notification
	settings      map[string]models.SystemSetting
}

func newData() *data {
	return &data{
		users:         map[string]models.User{},
		categories:    map[string]models.Category{},
		tasks:         map[string]models.Task{},
		profiles:      map[string]models.ProgressProfile{},
		achievements:  map[string]models.Achievement{},
		reviews:       map[string]models.WeeklyReview{},
		templates:     map[string]models.MissionTemplate{},
		missions:      map[string]models.UserMission{},
		boardTypes:    map[string]models.LeaderboardType{},
		entries:       map[string]models.LeaderboardEntry{},
		notifications: map[string]models.Notification{},
		settings:      map[string]models.SystemSetting{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// snapshot copies every table; callers hold mu
func (d *data) snapshot() *data {
	return &data{
		users:         cloneMap(d.users),
		categories:    cloneMap(d.categories),
		tasks:         cloneMap(d.tasks),
		xpLogs:        append([]models.XPLog(nil), d.xpLogs...),
		profiles:      cloneMap(d.profiles),
		achievements:  cloneMap(d.achievements),
		unlocks:       append([]models.UserAchievement(nil), d.unlocks...),
		reviews:       cloneMap(d.reviews),
		templates:     cloneMap(d.templates),
		missions:      cloneMap(d.missions),
		boardTypes:    cloneMap(d.boardTypes),
		entries:       cloneMap(d.entries),
		notifications: cloneMap(d.notifications),
		settings:      cloneMap(d.settings),
	}
}

func (d *data) restore(s *data) {
	d.users, d.categories, d.tasks, d.xpLogs = s.users, s.categories, s.tasks, s.xpLogs
	d.profiles, d.achievements, d.unlocks, d.reviews = s.profiles, s.achievements, s.unlocks, s.reviews
	d.templates, d.missions, d.boardTypes, d.entries = s.templates, s.missions, s.boardTypes, s.entries
	d.notifications, d.settings = s.notifications, s.settings
}

// Store implements repository.Store in memory
type Store struct {
	d    *data
	txMu *sync.Mutex
	inTx bool
}

// New creates an empty store
func New() *Store {
	return &Store{d: newData(), txMu: &sync.Mutex{}}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Users() repository.UserRepository                 { return userRepo{s.d} }
func (s *Store) Categories() repository.CategoryRepository        { return categoryRepo{s.d} }
func (s *Store) Tasks() repository.TaskRepository                 { return taskRepo{s.d} }
func (s *Store) XPLogs() repository.XPLogRepository               { return xpLogRepo{s.d} }
func (s *Store) Profiles() repository.ProfileRepository           { return profileRepo{s.d} }
func (s *Store) Achievements() repository.AchievementRepository   { return achievementRepo{s.d} }
func (s *Store) Reviews() repository.ReviewRepository             { return reviewRepo{s.d} }
func (s *Store) Missions() repository.MissionRepository           { return missionRepo{s.d} }
func (s *Store) Leaderboards() repository.LeaderboardRepository   { return leaderboardRepo{s.d} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s.d} }
func (s *Store) Settings() repository.SettingRepository           { return settingRepo{s.d} }

// WithTransaction serializes transactions and restores the pre-transaction state when fn fails.
// Nested calls join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.d.mu.RLock()
	snap := s.d.snapshot()
	s.d.mu.RUnlock()

	tx := &Store{d: s.d, txMu: s.txMu, inTx: true}
	committed := false
	defer func() {
		if !committed {
			s.d.mu.Lock()
			s.d.restore(snap)
			s.d.mu.Unlock()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AllXPLogs returns a copy of the whole ledger, oldest first. Test helper.
func (s *Store) AllXPLogs() []models.XPLog {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return append([]models.XPLog(nil), s.d.xpLogs...)
}

// AllNotifications returns every stored notification, oldest first. Test helper.
func (s *Store) AllNotifications() []models.Notification {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make([]models.Notification, 0, len(s.d.notifications))
	for _, n := range s.d.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func notFound(operation string) error {
	return &opError{op: operation, err: models.ErrNotFound}
}

type opError struct {
	op  string
	err error
}

func (e *opError) Error() string { return e.op + ": " + e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func ptr[T any](v T) *T { return &v }
