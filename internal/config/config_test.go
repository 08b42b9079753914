package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 30*24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, "admin@gochop.io", cfg.AdminEmails)
	assert.Equal(t, 5, cfg.RegisterRateMax)
	assert.Equal(t, 15*time.Minute, cfg.RegisterRateWindow)
	assert.Equal(t, 10, cfg.VerifyRateMax)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_SECRET", "real-secret")
	t.Setenv("SESSION_MAX_AGE", "24h")
	t.Setenv("ADMIN_EMAILS", "ops@gochop.io,admin@gochop.io")
	t.Setenv("REGISTER_RATE_MAX", "3")
	t.Setenv("REGISTER_RATE_WINDOW", "5m")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, "ops@gochop.io,admin@gochop.io", cfg.AdminEmails)
	assert.Equal(t, 3, cfg.RegisterRateMax)
	assert.Equal(t, 5*time.Minute, cfg.RegisterRateWindow)
	assert.Equal(t, "client-id", cfg.Google.ClientID)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("SESSION_MAX_AGE", "thirty-days")

	_, err := Load()
	assert.Error(t, err)
}
