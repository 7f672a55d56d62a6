package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
browser:
  headless: true
  navigate_timeout: 30s
walk:
  timeout: 2m
  settle: poll
  poll_interval: 250ms
  load_settle: 3s
  click_settle: 2s
  popup_settle: 2s
  step_interval: 1s
  slides: 10
  max_concurrency: 1
download:
  output_dir: downloads
  user_agent: storyfetch-test
  timeout: 20s
  retries: 2
  backoff_min: 500ms
  backoff_max: 4s
  max_concurrency: 4
  upgrade_videos: true
backends:
  - name: mirror
    kind: browser
    mirrors:
      - https://mirror.example
    profile_path: /profile/{username}
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Browser.NavigateTimeout)
	assert.Equal(t, SettlePoll, cfg.Walk.Settle)
	assert.Equal(t, 250*time.Millisecond, cfg.Walk.PollInterval)
	assert.Equal(t, 10, cfg.Walk.Slides)
	assert.Equal(t, 4*time.Second, cfg.Download.BackoffMax)
	require.Len(t, cfg.Backends, 1)
	assert.Equal(t, KindBrowser, cfg.Backends[0].Kind)
	assert.Equal(t, "/profile/{username}", cfg.Backends[0].ProfilePath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "loading config")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		new     string
		wantErr string
	}{
		{"unknown settle mode", "settle: poll", "settle: spin", "Settle"},
		{"unknown backend kind", "kind: browser", "kind: ftp", "Kind"},
		{"profile path without placeholder", "/profile/{username}", "/profile/", "ProfilePath"},
		{"mirror is not a url", "https://mirror.example", "mirror", "Mirrors"},
		{"zero slides", "slides: 10", "slides: 0", "Slides"},
		{"backoff max below min", "backoff_max: 4s", "backoff_max: 100ms", "BackoffMax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := replaceOnce(t, validConfig, tt.old, tt.new)
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func replaceOnce(t *testing.T, s, old, new string) string {
	t.Helper()
	require.Contains(t, s, old)
	return strings.Replace(s, old, new, 1)
}
