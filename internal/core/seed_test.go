package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskquest/internal/repository/memstore"
	"taskquest/pkg/models"
)

func TestSeedAllIsRepeatable(t *testing.T) {
	f := newFixture(t)
	store := memstore.New()
	seeder := NewSeeder(store, f.clock)

	require.NoError(t, seeder.SeedAll(f.ctx))
	require.NoError(t, seeder.SeedAll(f.ctx))

	categories, err := store.Categories().List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(DefaultCategories()))

	achievements, err := store.Achievements().List(f.ctx, true)
	require.NoError(t, err)
	assert.Len(t, achievements, len(DefaultAchievements()))

	templates, err := store.Missions().ListTemplates(f.ctx, false)
	require.NoError(t, err)
	assert.Len(t, templates, len(DefaultMissionTemplates()))
}

func TestDefaultCatalogue(t *testing.T) {
	assert.Len(t, DefaultCategories(), 8)
	assert.Len(t, DefaultAchievements(), 22)
	assert.Len(t, DefaultMissionTemplates(), 14)

	starters := 0
	for _, tpl := range DefaultMissionTemplates() {
		assert.True(t, tpl.MissionType.IsValid(), tpl.Name)
		assert.Positive(t, tpl.TargetValue, tpl.Name)
		if tpl.FitsLevel(1) {
			starters++
		}
	}
	assert.Equal(t, 7, starters)

	names := map[string]bool{}
	for _, a := range DefaultAchievements() {
		assert.False(t, names[a.Name], "duplicate achievement %s", a.Name)
		names[a.Name] = true
		if a.AchievementType != models.AchievementSpecial {
			assert.Positive(t, a.Threshold, a.Name)
		}
	}
}
