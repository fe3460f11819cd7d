package memstore

import (
	"context"
	"sort"
	"time"

	"taskquest/pkg/models"
)

// users

type userRepo struct{ d *data }

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.users[u.ID]; ok {
		return &opError{op: "create_user", err: models.ErrConflict}
	}
	for _, existing := range r.d.users {
		if existing.Username == u.Username {
			return &opError{op: "create_user", err: models.ErrConflict}
		}
	}
	r.d.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, notFound("get_user")
	}
	return &u, nil
}

func (r userRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return notFound("touch_login")
	}
	u.LastLoginAt = ptr(at)
	r.d.users[id] = u
	return nil
}

func (r userRepo) ListActiveSince(ctx context.Context, since time.Time) ([]string, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []string
	for id, u := range r.d.users {
		if u.LastLoginAt != nil && !u.LastLoginAt.Before(since) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// categories

type categoryRepo struct{ d *data }

func (r categoryRepo) Upsert(ctx context.Context, c *models.Category) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for id, existing := range r.d.categories {
		if existing.Name == c.Name {
			c.ID, c.CreatedAt = id, existing.CreatedAt
			break
		}
	}
	r.d.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	c, ok := r.d.categories[id]
	if !ok {
		return nil, notFound("get_category")
	}
	return &c, nil
}

func (r categoryRepo) List(ctx context.Context) ([]*models.Category, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := make([]*models.Category, 0, len(r.d.categories))
	for _, c := range r.d.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// tasks

type taskRepo struct{ d *data }

// joined fills the category the way the SQL join does; callers hold mu
func (r taskRepo) joined(t models.Task) *models.Task {
	if c, ok := r.d.categories[t.CategoryID]; ok {
		t.Category = c
	}
	return &t
}

func (r taskRepo) Create(ctx context.Context, t *models.Task) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.categories[t.CategoryID]; !ok {
		return &opError{op: "create_task", err: models.ErrInvalidReference}
	}
	if _, ok := r.d.tasks[t.ID]; ok {
		return &opError{op: "create_task", err: models.ErrConflict}
	}
	r.d.tasks[t.ID] = *t
	return nil
}

func (r taskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	t, ok := r.d.tasks[id]
	if !ok {
		return nil, notFound("get_task")
	}
	return r.joined(t), nil
}

func (r taskRepo) ListByUser(ctx context.Context, userID string, completed *bool, limit, offset int) ([]*models.Task, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.Task
	for _, t := range r.d.tasks {
		if t.UserID != userID || (completed != nil && t.IsCompleted != *completed) {
			continue
		}
		out = append(out, r.joined(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r taskRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.tasks[id]
	if !ok {
		return notFound("complete_task")
	}
	if t.IsCompleted {
		return models.ErrTaskAlreadyCompleted
	}
	t.IsCompleted = true
	t.CompletedAt = ptr(at)
	t.UpdatedAt = at
	r.d.tasks[id] = t
	return nil
}

// completed iterates a user's completed tasks; callers hold mu
func (r taskRepo) completed(userID string, fn func(t models.Task)) {
	for _, t := range r.d.tasks {
		if t.UserID == userID && t.IsCompleted && t.CompletedAt != nil {
			fn(t)
		}
	}
}

func (r taskRepo) CountAll(ctx context.Context, userID string) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	n := 0
	for _, t := range r.d.tasks {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r taskRepo) CountCompleted(ctx context.Context, userID string) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	n := 0
	r.completed(userID, func(models.Task) { n++ })
	return n, nil
}

func (r taskRepo) CountCompletedBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	n := 0
	r.completed(userID, func(t models.Task) {
		if inWindow(*t.CompletedAt, from, to) {
			n++
		}
	})
	return n, nil
}

func (r taskRepo) CountCompletedBeforeDue(ctx context.Context, userID string) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	n := 0
	r.completed(userID, func(t models.Task) {
		if t.DueDate != nil && t.CompletedAt.Before(*t.DueDate) {
			n++
		}
	})
	return n, nil
}

func (r taskRepo) MaxCompletedInCategory(ctx context.Context, userID string) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	counts := map[string]int{}
	best := 0
	r.completed(userID, func(t models.Task) {
		counts[t.CategoryID]++
		if counts[t.CategoryID] > best {
			best = counts[t.CategoryID]
		}
	})
	return best, nil
}

func (r taskRepo) ListCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Task, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.Task
	r.completed(userID, func(t models.Task) {
		if inWindow(*t.CompletedAt, from, to) {
			out = append(out, r.joined(t))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(*out[j].CompletedAt) })
	return out, nil
}

func (r taskRepo) ListCompletionTimes(ctx context.Context, userID string) ([]time.Time, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []time.Time
	r.completed(userID, func(t models.Task) { out = append(out, *t.CompletedAt) })
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (r taskRepo) ListUsersCompletedBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, t := range r.d.tasks {
		if t.IsCompleted && t.CompletedAt != nil && inWindow(*t.CompletedAt, from, to) && !seen[t.UserID] {
			seen[t.UserID] = true
			out = append(out, t.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// xp ledger

type xpLogRepo struct{ d *data }

func (r xpLogRepo) Create(ctx context.Context, l *models.XPLog) error {
	if !l.Action.IsValid() {
		return &opError{op: "create_xp_log", err: models.ErrInvalidInput}
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.xpLogs = append(r.d.xpLogs, *l)
	return nil
}

func (r xpLogRepo) Sum(ctx context.Context, userID string, f models.XPLogFilter) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	total := 0
	for _, l := range r.d.xpLogs {
		if l.UserID != userID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.From != nil && l.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !l.CreatedAt.Before(*f.To) {
			continue
		}
		total += l.XPEarned
	}
	return total, nil
}

func (r xpLogRepo) FindTaskCompletion(ctx context.Context, taskID string) (*models.XPLog, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, l := range r.d.xpLogs {
		if l.Action == models.ActionTaskComplete && l.TaskID != nil && *l.TaskID == taskID {
			l := l
			return &l, nil
		}
	}
	return nil, notFound("find_task_completion_log")
}

func (r xpLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*models.XPLog, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.XPLog
	for i := len(r.d.xpLogs) - 1; i >= 0; i-- {
		l := r.d.xpLogs[i]
		if l.UserID != userID {
			continue
		}
		out = append(out, &l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// profiles

type profileRepo struct{ d *data }

func (r profileRepo) Ensure(ctx context.Context, userID string, now time.Time) (*models.ProgressProfile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.profiles[userID]
	if !ok {
		p = *models.NewProgressProfile(userID, now)
		r.d.profiles[userID] = p
	}
	return &p, nil
}

func (r profileRepo) Get(ctx context.Context, userID string) (*models.ProgressProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	p, ok := r.d.profiles[userID]
	if !ok {
		return nil, &opError{op: "get_profile", err: models.ErrProfileNotFound}
	}
	return &p, nil
}

func (r profileRepo) Update(ctx context.Context, p *models.ProgressProfile) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.profiles[p.UserID]; !ok {
		return notFound("update_profile")
	}
	r.d.profiles[p.UserID] = *p
	return nil
}

// achievements

type achievementRepo struct{ d *data }

func (r achievementRepo) Upsert(ctx context.Context, a *models.Achievement) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for id, existing := range r.d.achievements {
		if existing.Name == a.Name {
			a.ID, a.CreatedAt = id, existing.CreatedAt
			break
		}
	}
	r.d.achievements[a.ID] = *a
	return nil
}

func (r achievementRepo) GetByID(ctx context.Context, id string) (*models.Achievement, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	a, ok := r.d.achievements[id]
	if !ok {
		return nil, notFound("get_achievement")
	}
	return &a, nil
}

// unlocked reports whether the pair exists; callers hold mu
func (r achievementRepo) unlocked(userID, achievementID string) bool {
	for _, ua := range r.d.unlocks {
		if ua.UserID == userID && ua.AchievementID == achievementID {
			return true
		}
	}
	return false
}

func (r achievementRepo) filter(keep func(a models.Achievement) bool) []*models.Achievement {
	var out []*models.Achievement
	for _, a := range r.d.achievements {
		if a.IsActive && keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AchievementType != out[j].AchievementType {
			return out[i].AchievementType < out[j].AchievementType
		}
		if out[i].Threshold != out[j].Threshold {
			return out[i].Threshold < out[j].Threshold
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r achievementRepo) List(ctx context.Context, includeHidden bool) ([]*models.Achievement, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return r.filter(func(a models.Achievement) bool { return includeHidden || !a.IsHidden }), nil
}

func (r achievementRepo) ListLocked(ctx context.Context, userID string) ([]*models.Achievement, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return r.filter(func(a models.Achievement) bool { return !r.unlocked(userID, a.ID) }), nil
}

func (r achievementRepo) ListLockedLevel(ctx context.Context, userID string, above, upTo int) ([]*models.Achievement, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return r.filter(func(a models.Achievement) bool {
		return a.AchievementType == models.AchievementLevel &&
			a.Threshold > above && a.Threshold <= upTo &&
			!r.unlocked(userID, a.ID)
	}), nil
}

func (r achievementRepo) Unlock(ctx context.Context, ua *models.UserAchievement) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.achievements[ua.AchievementID]; !ok {
		return &opError{op: "unlock_achievement", err: models.ErrInvalidReference}
	}
	if r.unlocked(ua.UserID, ua.AchievementID) {
		return models.ErrAlreadyUnlocked
	}
	stored := *ua
	stored.Achievement = nil
	r.d.unlocks = append(r.d.unlocks, stored)
	return nil
}

func (r achievementRepo) ListUnlocked(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.UserAchievement
	for _, ua := range r.d.unlocks {
		if ua.UserID != userID {
			continue
		}
		ua := ua
		if a, ok := r.d.achievements[ua.AchievementID]; ok {
			ua.Achievement = &a
		}
		out = append(out, &ua)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UnlockedAt.After(out[j].UnlockedAt) })
	return out, nil
}

// reviews

type reviewRepo struct{ d *data }

func reviewKey(userID string, weekStart time.Time) string {
	return userID + "|" + weekStart.UTC().Format(time.RFC3339Nano)
}

func (r reviewRepo) Upsert(ctx context.Context, rv *models.WeeklyReview) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	key := reviewKey(rv.UserID, rv.WeekStart)
	if existing, ok := r.d.reviews[key]; ok {
		rv.ID, rv.CreatedAt = existing.ID, existing.CreatedAt
	}
	r.d.reviews[key] = *rv
	return nil
}

func (r reviewRepo) GetByWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyReview, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	rv, ok := r.d.reviews[reviewKey(userID, weekStart)]
	if !ok {
		return nil, notFound("get_weekly_review")
	}
	return &rv, nil
}

func (r reviewRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*models.WeeklyReview, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.WeeklyReview
	for _, rv := range r.d.reviews {
		if rv.UserID == userID {
			rv := rv
			out = append(out, &rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
