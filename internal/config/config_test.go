package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_ADMIN_EMAILS", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 5*time.Minute, cfg.Auth.RecentLoginWindow())
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL())
	assert.Empty(t, cfg.Auth.AdminEmails)
	assert.Equal(t, "employee_portal", cfg.Mongo.Database)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_ADMIN_EMAILS", " Boss@Corp.com , ,hr@corp.com")
	t.Setenv("AUTH_RECENT_LOGIN_MINUTES", "10")
	t.Setenv("RECONCILE_INTERVAL_MINUTES", "0")
	t.Setenv("SFTP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, []string{"boss@corp.com", "hr@corp.com"}, cfg.Auth.AdminEmails)
	assert.Equal(t, 10*time.Minute, cfg.Auth.RecentLoginWindow())
	assert.Zero(t, cfg.Reconcile.Interval())
	assert.Equal(t, 22, cfg.Export.SFTPPort)
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}
