package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 10.0, cfg.Google.RateLimit, 0.001)
	assert.Equal(t, 2100*time.Millisecond, cfg.Google.PageTokenDelay)
	assert.Equal(t, "he", cfg.Search.Language)
	assert.Equal(t, "IL", cfg.Search.Region)
	assert.InDelta(t, 1500.0, cfg.Search.CellMeters, 0.001)
	assert.Equal(t, 3, cfg.Search.PageCap)
	assert.Equal(t, 4, cfg.Search.Concurrency)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, 587, cfg.Notify.SMTP.Port)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
google:
  api_key: file-key
  page_token_delay: 3s
search:
  language: en
  region: US
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Google.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Google.PageTokenDelay)
	assert.Equal(t, "en", cfg.Search.Language)
	assert.Equal(t, "US", cfg.Search.Region)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("PLACES_GOOGLE_API_KEY", "env-key")
	t.Setenv("PLACES_SEARCH_LANGUAGE", "ar")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Google.APIKey)
	assert.Equal(t, "ar", cfg.Search.Language)
}

func TestValidateSearch_RequiresAPIKey(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate("search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.api_key")

	cfg.Google.APIKey = "k"
	assert.NoError(t, cfg.Validate("search"))
}

func TestValidateNotify(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("notify")
	require.Error(t, err)

	cfg.Notify.WebhookURL = "https://hooks.example.com/x"
	assert.NoError(t, cfg.Validate("notify"))

	cfg = &Config{}
	cfg.Notify.SMTP.Host = "smtp.gmail.com"
	err = cfg.Validate("notify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify.smtp.from")

	cfg.Notify.SMTP.From = "bot@example.com"
	cfg.Notify.SMTP.To = "ops@example.com"
	assert.NoError(t, cfg.Validate("notify"))
}

func TestValidateUnknownScopeIsPermissive(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate("version"))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
