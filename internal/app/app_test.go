package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskquest/internal/core"
	"taskquest/internal/repository/memstore"
	"taskquest/pkg/config"
	"taskquest/pkg/models"
)

func TestBuildWiresServices(t *testing.T) {
	cfg := config.Default()
	clock := core.NewFixedClock(time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC))
	a, err := Build(cfg, memstore.New(), clock, core.NewLocalLocker(time.Second))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.HealthCheck(ctx))
	require.NoError(t, a.Seeder.SeedAll(ctx))

	profile, err := a.Lifecycle.UserCreated(ctx, &models.User{ID: "u1", Username: "ada", Role: models.UserRoleUser})
	require.NoError(t, err)
	assert.Equal(t, 1, profile.CurrentLevel)

	a.runMaintenance(ctx)
	setting, err := a.System.GetSetting(ctx, core.SettingLastMaintenanceRun)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02T10:00:00Z", setting.Value)
}

func TestBuildRejectsBadTimezone(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Timezone = "Nowhere/Land"
	_, err := Build(cfg, memstore.New(), core.SystemClock(), nil)
	assert.Error(t, err)
}

func TestRunMaintenanceLoopStopsWithContext(t *testing.T) {
	a, err := Build(config.Default(), memstore.New(), core.SystemClock(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunMaintenanceLoop(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("maintenance loop did not stop")
	}
}
