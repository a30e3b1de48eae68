package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"8", slog.LevelError},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseSlogLevel(tt.in, slog.LevelWarn))
		})
	}
}

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	v := newConfig()
	assert.Equal(t, "function_calls.json", v.GetString(graphKey))
	assert.Equal(t, extractorHeuristic, v.GetString(extractorKey))
	assert.Equal(t, 0, v.GetInt(workersKey))
	assert.False(t, v.GetBool(keepGoingKey))
	assert.False(t, v.GetBool(gitignoreKey))
	assert.Empty(t, v.GetStringSlice(excludeKey))
	assert.Equal(t, 500*time.Millisecond, v.GetDuration(debounceKey))
	assert.Equal(t, defaultLogLevel, v.GetString(logLevelKey))
}

// Not parallel: t.Setenv.
func TestNewConfigEnv(t *testing.T) {
	t.Setenv("CGRAPH_GRAPH", "env.json")
	t.Setenv("CGRAPH_PATHS_GITIGNORE", "true")
	t.Setenv("CGRAPH_WATCH_DEBOUNCE", "2s")

	v := newConfig()
	assert.Equal(t, "env.json", v.GetString(graphKey))
	assert.True(t, v.GetBool(gitignoreKey))
	assert.Equal(t, 2*time.Second, v.GetDuration(debounceKey))
}

func TestReadConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`graph: custom.json
workers: 3
paths:
  exclude:
    - "^test/"
log:
  level: debug
`), 0o644))

	v := newConfig()
	require.NoError(t, readConfig(v, path))
	assert.Equal(t, "custom.json", v.GetString(graphKey))
	assert.Equal(t, 3, v.GetInt(workersKey))
	assert.Equal(t, []string{"^test/"}, v.GetStringSlice(excludeKey))
	assert.Equal(t, "debug", v.GetString(logLevelKey))
}

func TestReadConfigMissingExplicit(t *testing.T) {
	t.Parallel()

	err := readConfig(newConfig(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfigureLoggerStderr(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	logger, closer := configureLogger(newConfig(), &stderr, false)
	defer func() { _ = closer.Close() }()

	logger.Info("hidden")
	logger.Warn("shown", "path", "a.c")
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "path=a.c")
}

func TestConfigureLoggerVerbose(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	logger, _ := configureLogger(newConfig(), &stderr, true)
	logger.Debug("scanned file", "functions", 2)
	assert.Contains(t, stderr.String(), "functions=2")
}

func TestConfigureLoggerFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cgraph.log")
	v := newConfig()
	v.Set(logFilenameKey, path)
	v.Set(logLevelKey, "info")

	var stderr bytes.Buffer
	logger, closer := configureLogger(v, &stderr, false)
	logger.Info("call graph built", "files", 2)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "files=2")
	assert.Empty(t, stderr.String())
}
