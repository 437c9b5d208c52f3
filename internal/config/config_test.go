package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"HTTP_ADDR", "CORS_ORIGINS", "DATABASE_URL", "SMTP_HOST", "SMTP_PORT", "USAGE_RESET_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "coldread.sqlite", cfg.Database.URL)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.False(t, cfg.Email.Enabled())
	assert.Equal(t, "0 0 1 * *", cfg.Usage.ResetSchedule)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORS_ORIGINS", "https://app.example.com, chrome-extension://abc ,")
	t.Setenv("APP_BASE_URL", "https://app.example.com/")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.com", "chrome-extension://abc"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "https://app.example.com", cfg.HTTP.AppBaseURL)
	assert.True(t, cfg.Email.Enabled())
	assert.Equal(t, 2525, cfg.Email.Port)
}

func TestLoad_InvalidSMTPPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SMTP_PORT", "smtp")

	_, err := Load()
	require.Error(t, err)
}
