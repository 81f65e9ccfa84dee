package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
telegram:
  token: test-token
youtube:
  api_key: test-yt-key
metadata:
  providers:
    - type: yandex
      display_name: Yandex Music
    - type: spotify
      display_name: Spotify
      settings:
        client_id: test-id
        client_secret: test-secret
`

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Telegram.Token)
	assert.Equal(t, 30, cfg.Telegram.PollTimeoutSec)
	assert.Equal(t, "data/db/music.db", cfg.Database.Path)
	assert.Equal(t, "yt-dlp", cfg.Download.Binary)
	assert.Equal(t, 120, cfg.Download.TimeoutSec)
	assert.Equal(t, "data/img/library.png", cfg.Assets.LibraryImage)
	assert.NotEmpty(t, cfg.Messages.Greeting)
	require.Len(t, cfg.Metadata.Providers, 2)
	assert.Equal(t, "yandex", cfg.Metadata.Providers[0].Type)
}

func TestLoad_MissingToken(t *testing.T) {
	_, err := Load(writeConfig(t, `
youtube:
  api_key: test-yt-key
metadata:
  providers:
    - type: yandex
      display_name: Yandex Music
`))
	assert.Error(t, err)
}

func TestLoad_RequiresProviders(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: test-token
youtube:
  api_key: test-yt-key
`))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "env-id", cfg.Metadata.Providers[1].Settings["client_id"])
	assert.Equal(t, "env-secret", cfg.Metadata.Providers[1].Settings["client_secret"])
	// Non-spotify providers are untouched.
	assert.NotContains(t, cfg.Metadata.Providers[0].Settings, "client_id")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
