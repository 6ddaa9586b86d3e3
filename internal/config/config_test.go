package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "hostel-complaint-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 3, cfg.Escalation.AutoEscalateAfterDays)
	assert.Equal(t, 5, cfg.RateLimit.CreatePerHour)
	assert.Equal(t, "complaint-attachments", cfg.Minio.Bucket)
	assert.Equal(t, int64(5<<20), cfg.Minio.MaxUploadBytes)
	assert.Equal(t, 15*time.Minute, cfg.Minio.PresignTTL())
	assert.True(t, cfg.Postgres.RunMigrations)
}

func TestLoadHonorsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("ESCALATION_AUTO_AFTER_DAYS", "7")
	t.Setenv("ESCALATION_DEFAULT_WORKER_NAME", "Night Shift Desk")
	t.Setenv("RATE_LIMIT_CREATE_PER_HOUR", "20")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 7, cfg.Escalation.AutoEscalateAfterDays)
	assert.Equal(t, "Night Shift Desk", cfg.Escalation.DefaultWorkerName)
	assert.Equal(t, 20, cfg.RateLimit.CreatePerHour)
	assert.Equal(t, 15, cfg.Auth.AccessTokenTTLMinutes)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := config.Load()
	assert.Error(t, err)
}
