package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(20*1024*1024), cfg.Limits.MaxFileSize)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}, cfg.Limits.ImageExtensions)
	assert.Equal(t, []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}, cfg.Limits.VideoExtensions)
	assert.Equal(t, 30, cfg.Limits.RequestTimeout)
	assert.Equal(t, 3, cfg.Limits.MaxRetries)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Metadata.TMDB.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("GOOGLE_VISION_API_KEY", "vision-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "tmdb-key", cfg.Metadata.TMDB.APIKey)
	assert.Equal(t, "vision-key", cfg.Vision.APIKey)
	assert.Empty(t, cfg.Metadata.OMDB.APIKey)
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FILMSCOUT_YOUTUBE_API_KEY", "prefixed")
	t.Setenv("YOUTUBE_API_KEY", "legacy")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.YouTube.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9191\nlimits:\n  max_file_size: 1048576\ntelegram:\n  token: from-file\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, int64(1048576), cfg.Limits.MaxFileSize)
	assert.Equal(t, "from-file", cfg.Telegram.Token)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingBotToken)

	cfg.Telegram.Token = "123:abc"
	assert.NoError(t, cfg.Validate())

	cfg.Limits.MaxFileSize = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_APIStatus(t *testing.T) {
	cfg := Default()
	cfg.Metadata.TMDB.APIKey = "x"
	cfg.YouTube.APIKey = "y"

	status := cfg.APIStatus()
	assert.Len(t, status, len(APIStatusOrder))
	assert.True(t, status["TMDB"])
	assert.False(t, status["OMDB"])
	assert.True(t, status["YouTube"])
	assert.False(t, status["Google Vision"])
}

func TestConfig_RequestTimeout(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())

	cfg.Limits.RequestTimeout = 0
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())

	cfg.Limits.RequestTimeout = 5
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
}

func TestServerConfig_Address(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", s.Address())
}

func TestLimitsConfig_MaxFileSizeMB(t *testing.T) {
	assert.Equal(t, int64(20), Default().Limits.MaxFileSizeMB())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
