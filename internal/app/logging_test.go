package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggingWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "storyfetch.log")
	closer := SetupLogging(LoggingConfig{File: path, MaxSizeMB: 1}, true)

	slog.Debug("walk: loading profile", "url", "https://mirror.example/profile/someone")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level=DEBUG")
	assert.Contains(t, string(data), "walk: loading profile")
}

func TestSetupLoggingWithoutFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	closer := SetupLogging(LoggingConfig{}, false)
	assert.NoError(t, closer.Close())
	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
}
