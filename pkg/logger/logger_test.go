package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	Init(cfg)
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		Init(Config{Level: "info", Format: "text"})
		infoLog.SetOutput(os.Stdout)
		errorLog.SetOutput(os.Stderr)
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, Config{Level: "warn", Format: "text"})

	Info("hidden")
	Warn("shown")
	Errorf("failed %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown")
	assert.Contains(t, out, "[ERROR] failed 2")
}

func TestJSONFormatCarriesFields(t *testing.T) {
	buf := capture(t, Config{Level: "debug", Format: "json"})

	XP("u1", "task_complete", 22)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "engine", entry.Component)
	assert.Equal(t, "u1", entry.Fields["user_id"])
	assert.EqualValues(t, 22, entry.Fields["xp"])
}

func TestMaintenanceWarnsOnFailures(t *testing.T) {
	buf := capture(t, Config{Level: "info", Format: "text"})

	Maintenance("assign_missions", 4, 1)
	Maintenance("purge_notifications", 10, 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] maintenance assign_missions: 4 processed, 1 failed")
	assert.Contains(t, lines[1], "[INFO] maintenance purge_notifications")
}

func TestRequestIDRoundTrip(t *testing.T) {
	buf := capture(t, Config{Level: "info", Format: "text"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestID(ctx))

	WithRequestID(ctx).With("user_id", "u1").Info("completed task")
	assert.Contains(t, buf.String(), "request_id:req-42")
	assert.Contains(t, buf.String(), "user_id:u1")

	assert.Empty(t, RequestID(context.Background()))
}
