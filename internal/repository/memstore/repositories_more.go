package memstore

import (
	"context"
	"sort"
	"time"

	"taskquest/pkg/models"
)

// missions

type missionRepo struct{ d *data }

func (r missionRepo) UpsertTemplate(ctx context.Context, t *models.MissionTemplate) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for id, existing := range r.d.templates {
		if existing.Name == t.Name {
			t.ID, t.CreatedAt = id, existing.CreatedAt
			break
		}
	}
	r.d.templates[t.ID] = *t
	return nil
}

func (r missionRepo) GetTemplate(ctx context.Context, id string) (*models.MissionTemplate, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	t, ok := r.d.templates[id]
	if !ok {
		return nil, notFound("get_mission_template")
	}
	return &t, nil
}

func (r missionRepo) ListTemplates(ctx context.Context, activeOnly bool) ([]*models.MissionTemplate, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.MissionTemplate
	for _, t := range r.d.templates {
		if activeOnly && !t.IsActive {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r missionRepo) Create(ctx context.Context, m *models.UserMission) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.templates[m.TemplateID]; !ok {
		return &opError{op: "create_user_mission", err: models.ErrInvalidReference}
	}
	if m.CurrentProgress > m.TargetValue {
		return &opError{op: "create_user_mission", err: models.ErrInvalidInput}
	}
	r.d.missions[m.ID] = *m
	return nil
}

func (r missionRepo) GetByID(ctx context.Context, id string) (*models.UserMission, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	m, ok := r.d.missions[id]
	if !ok {
		return nil, notFound("get_user_mission")
	}
	return &m, nil
}

func (r missionRepo) List(ctx context.Context, userID string, f models.MissionFilter) ([]*models.UserMission, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.UserMission
	for _, m := range r.d.missions {
		switch {
		case m.UserID != userID:
			continue
		case f.Cadence != nil && m.Cadence != *f.Cadence:
			continue
		case f.MissionType != nil && m.MissionType != *f.MissionType:
			continue
		case f.Status != nil && m.Status != *f.Status:
			continue
		case f.AssignedOn != nil && !m.AssignedDate.Equal(*f.AssignedOn):
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.AssignedDate.Equal(b.AssignedDate) {
			return a.AssignedDate.After(b.AssignedDate)
		}
		if a.IsCompleted() != b.IsCompleted() {
			return !a.IsCompleted()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func (r missionRepo) Update(ctx context.Context, m *models.UserMission) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.missions[m.ID]
	if !ok {
		return notFound("update_user_mission")
	}
	if m.CurrentProgress > stored.TargetValue || m.CurrentProgress < 0 {
		return &opError{op: "update_user_mission", err: models.ErrInvalidInput}
	}
	stored.CurrentProgress = m.CurrentProgress
	stored.Status = m.Status
	stored.CompletedAt = m.CompletedAt
	stored.UpdatedAt = m.UpdatedAt
	r.d.missions[m.ID] = stored
	return nil
}

func (r missionRepo) CountActive(ctx context.Context, userID string) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	n := 0
	for _, m := range r.d.missions {
		if m.UserID == userID && m.Status == models.MissionActive {
			n++
		}
	}
	return n, nil
}

func (r missionRepo) ListExpired(ctx context.Context, now time.Time) ([]*models.UserMission, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.UserMission
	for _, m := range r.d.missions {
		if m.Status == models.MissionActive && m.EndDate.Before(now) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r missionRepo) CompletedTemplateIDsSince(ctx context.Context, userID string, since time.Time) ([]string, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, m := range r.d.missions {
		if m.UserID != userID || m.Status != models.MissionCompleted || m.CompletedAt == nil {
			continue
		}
		if !m.CompletedAt.Before(since) && !seen[m.TemplateID] {
			seen[m.TemplateID] = true
			out = append(out, m.TemplateID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// leaderboards

type leaderboardRepo struct{ d *data }

func entryKey(typeID, userID string, periodStart time.Time) string {
	return typeID + "|" + userID + "|" + periodStart.UTC().Format(time.RFC3339Nano)
}

func (r leaderboardRepo) GetOrCreateType(ctx context.Context, lt *models.LeaderboardType) (*models.LeaderboardType, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.boardTypes {
		if existing.Name == lt.Name {
			out := existing
			return &out, nil
		}
	}
	r.d.boardTypes[lt.ID] = *lt
	out := *lt
	return &out, nil
}

func (r leaderboardRepo) UpsertEntry(ctx context.Context, e *models.LeaderboardEntry) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.boardTypes[e.LeaderboardTypeID]; !ok {
		return &opError{op: "upsert_leaderboard_entry", err: models.ErrInvalidReference}
	}
	key := entryKey(e.LeaderboardTypeID, e.UserID, e.PeriodStart)
	if existing, ok := r.d.entries[key]; ok {
		e.ID = existing.ID
	}
	stored := *e
	stored.Username = ""
	r.d.entries[key] = stored
	return nil
}

// scoped returns entries of kind with the username joined; callers hold mu
func (r leaderboardRepo) scoped(kind models.LeaderboardKind, keep func(e models.LeaderboardEntry) bool) []*models.LeaderboardEntry {
	var out []*models.LeaderboardEntry
	for _, e := range r.d.entries {
		lt, ok := r.d.boardTypes[e.LeaderboardTypeID]
		if !ok || lt.LeaderboardType != kind || !keep(e) {
			continue
		}
		e := e
		if u, ok := r.d.users[e.UserID]; ok {
			e.Username = u.Username
		}
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

func (r leaderboardRepo) LatestPeriodEnd(ctx context.Context, kind models.LeaderboardKind) (time.Time, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var latest time.Time
	for _, e := range r.scoped(kind, func(models.LeaderboardEntry) bool { return true }) {
		if e.PeriodEnd.After(latest) {
			latest = e.PeriodEnd
		}
	}
	if latest.IsZero() {
		return time.Time{}, notFound("latest_leaderboard_period")
	}
	return latest, nil
}

func (r leaderboardRepo) ListSnapshot(ctx context.Context, kind models.LeaderboardKind, periodEnd time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := r.scoped(kind, func(e models.LeaderboardEntry) bool { return e.PeriodEnd.Equal(periodEnd) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r leaderboardRepo) ListRankRange(ctx context.Context, kind models.LeaderboardKind, periodEnd time.Time, fromRank, toRank int) ([]*models.LeaderboardEntry, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return r.scoped(kind, func(e models.LeaderboardEntry) bool {
		return e.PeriodEnd.Equal(periodEnd) && e.Rank >= fromRank && e.Rank <= toRank
	}), nil
}

func (r leaderboardRepo) LatestUserEntry(ctx context.Context, kind models.LeaderboardKind, userID string) (*models.LeaderboardEntry, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var best *models.LeaderboardEntry
	for _, e := range r.scoped(kind, func(e models.LeaderboardEntry) bool { return e.UserID == userID }) {
		if best == nil || e.PeriodEnd.After(best.PeriodEnd) {
			best = e
		}
	}
	if best == nil {
		return nil, notFound("get_user_rank")
	}
	return best, nil
}

// notifications

type notificationRepo struct{ d *data }

func visible(n models.Notification, now time.Time) bool {
	return !n.IsArchived && (n.ExpiresAt == nil || n.ExpiresAt.After(now))
}

func (r notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, now time.Time, limit int) ([]*models.Notification, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*models.Notification
	for _, n := range r.d.notifications {
		if n.UserID != userID || !visible(n, now) || (unreadOnly && n.IsRead) {
			continue
		}
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r notificationRepo) CountUnread(ctx context.Context, userID string, now time.Time) (int, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	count := 0
	for _, n := range r.d.notifications {
		if n.UserID == userID && !n.IsRead && visible(n, now) {
			count++
		}
	}
	return count, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	n, ok := r.d.notifications[id]
	if !ok || n.UserID != userID {
		return notFound("mark_notification_read")
	}
	n.IsRead = true
	if n.ReadAt == nil {
		n.ReadAt = ptr(at)
	}
	r.d.notifications[id] = n
	return nil
}

func (r notificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	count := 0
	for id, n := range r.d.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = ptr(at)
			r.d.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (r notificationRepo) Archive(ctx context.Context, userID, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	n, ok := r.d.notifications[id]
	if !ok || n.UserID != userID {
		return notFound("archive_notification")
	}
	n.IsArchived = true
	r.d.notifications[id] = n
	return nil
}

func (r notificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	count := 0
	for id, n := range r.d.notifications {
		if n.CreatedAt.Before(cutoff) {
			delete(r.d.notifications, id)
			count++
		}
	}
	return count, nil
}

// settings

type settingRepo struct{ d *data }

func (r settingRepo) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	s, ok := r.d.settings[key]
	if !ok {
		return nil, notFound("get_setting")
	}
	return &s, nil
}

func (r settingRepo) Set(ctx context.Context, s *models.SystemSetting) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored := *s
	if existing, ok := r.d.settings[s.Key]; ok && stored.Description == "" {
		stored.Description = existing.Description
	}
	r.d.settings[s.Key] = stored
	return nil
}
