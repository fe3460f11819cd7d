package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  host: db.internal
  conn_max_lifetime: 1h
engine:
  timezone: Europe/Berlin
  lock_ttl: 20s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 20*time.Second, cfg.Engine.LockTTL)
	assert.Equal(t, 3*time.Second, cfg.Engine.LockWait)

	db := cfg.DB()
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, time.Hour, db.ConnMaxLifetime)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: from-file\n")
	t.Setenv("TASKQUEST_JWT_SECRET", "from-env")
	t.Setenv("TASKQUEST_DB_PORT", "6543")
	t.Setenv("TASKQUEST_REDIS_ADDR", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("env port", func(t *testing.T) {
		t.Setenv("TASKQUEST_SERVER_PORT", "http")
		_, err := Load(writeConfig(t, ""))
		assert.Error(t, err)
	})
	t.Run("timezone", func(t *testing.T) {
		_, err := Load(writeConfig(t, "engine:\n  timezone: Mars/Olympus\n"))
		assert.ErrorContains(t, err, "invalid timezone")
	})
	t.Run("yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [oops"))
		assert.ErrorContains(t, err, "failed to parse config")
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config")
	})
	t.Run("empty secret", func(t *testing.T) {
		_, err := Load(writeConfig(t, "jwt:\n  secret: \"\"\n"))
		assert.ErrorContains(t, err, "jwt secret")
	})
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Engine.Timezone = "America/New_York"
	cfg.RateLimit.Burst = 3

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
