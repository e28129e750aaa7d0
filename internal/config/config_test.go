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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
auth:
  jwt:
    secret: "change-me-please"
contest:
  - ./contests
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, []string{"./contests"}, cfg.Contest)
	assert.Equal(t, 72, cfg.Auth.JWT.ExpireHours)
	assert.Equal(t, "https://codeforces.com/api", cfg.Judge.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Judge.FetchTimeout)
	assert.Equal(t, 8, cfg.Judge.MaxConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Standings.SettleDelay)
	assert.Equal(t, time.Minute, cfg.Standings.RefreshInterval)
	assert.Equal(t, 20, cfg.Standings.AttemptPenalty)
}

func TestLoad_Durations(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt:
    secret: "change-me-please"
judge:
  fetch_timeout: 3s
standings:
  settle_delay: 0s
  refresh_interval: 2m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Judge.FetchTimeout)
	assert.Equal(t, time.Duration(0), cfg.Standings.SettleDelay)
	assert.Equal(t, 2*time.Minute, cfg.Standings.RefreshInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-environment")
	t.Setenv("CF_API_KEY", "key")
	t.Setenv("CF_API_SECRET", "secret")
	path := writeConfig(t, `
auth:
  jwt:
    secret: "from-file-secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-environment", cfg.Auth.JWT.Secret)
	assert.Equal(t, "key", cfg.Judge.APIKey)
	assert.Equal(t, "secret", cfg.Judge.APISecret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing jwt secret", `listen: ":8080"`, "Secret"},
		{"bad log level", "logger:\n  level: loud\nauth:\n  jwt:\n    secret: change-me-please\n", "Level"},
		{"refresh too fast", "auth:\n  jwt:\n    secret: change-me-please\nstandings:\n  refresh_interval: 10ms\n", "RefreshInterval"},
		{"key without secret", "auth:\n  jwt:\n    secret: change-me-please\njudge:\n  api_key: abc\n", "APISecret"},
		{"zero concurrency", "auth:\n  jwt:\n    secret: change-me-please\njudge:\n  max_concurrency: 0\n", "MaxConcurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("CF_API_KEY", "")
			t.Setenv("CF_API_SECRET", "")

			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPath(t *testing.T) {
	t.Setenv("ARENA_CONFIG", "")
	assert.Equal(t, "config.yaml", Path(""))
	assert.Equal(t, "custom.yaml", Path("custom.yaml"))

	t.Setenv("ARENA_CONFIG", "/etc/arena.yaml")
	assert.Equal(t, "/etc/arena.yaml", Path(""))
	assert.Equal(t, "custom.yaml", Path("custom.yaml"))
}
