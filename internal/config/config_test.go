package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithEnvToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Bot.Token)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 3*time.Hour, cfg.Reward.Cooldown)
	assert.Equal(t, 15*time.Minute, cfg.Reward.AcceleratedCooldown)
	assert.Equal(t, 3*time.Minute, cfg.Duel.ProposalTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Quest.Duration)
	assert.Equal(t, 30*time.Minute, cfg.Law.Duration)
	assert.Equal(t, 300*time.Second, cfg.Moderation.ConfirmTimeout)
	assert.Equal(t, -1, cfg.Reward.LuckyHour)
}

func TestLoad_YAMLAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
bot:
  token: yaml-token
storage:
  driver: redis
admin:
  ids: [1, 2]
law:
  fine_max: 7
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "yaml-token", cfg.Bot.Token)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int64(7), cfg.Law.FineMax)
	assert.True(t, cfg.IsAdmin(2))
	assert.False(t, cfg.IsAdmin(3))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{}},
		{"unknown driver", map[string]string{"BOT_TOKEN": "x", "STORAGE_DRIVER": "mongo"}},
		{"bad log level", map[string]string{"BOT_TOKEN": "x", "LOG_LEVEL": "loud"}},
		{"fine range inverted", map[string]string{"BOT_TOKEN": "x", "LAW_FINE_MIN": "5", "LAW_FINE_MAX": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestIsChatAllowed(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.IsChatAllowed(-100), "empty whitelist allows all")

	cfg.Whitelist.Chats = []int64{-100}
	assert.True(t, cfg.IsChatAllowed(-100))
	assert.False(t, cfg.IsChatAllowed(-200))
}
