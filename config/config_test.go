package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AI_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	Load()

	assert.Equal(t, "8000", AppConfig.Server.Port)
	assert.False(t, AppConfig.AI.Enabled())
	assert.Equal(t, 5*time.Second, AppConfig.AI.Timeout)
	assert.Equal(t, 2, AppConfig.AI.MaxWorkers)
	assert.Equal(t, 512, AppConfig.AI.MaxOutputTokens)
	assert.Equal(t, []string{"*"}, AppConfig.CORS.AllowedOrigins)
	assert.True(t, AppConfig.Auth.AdminRequired)
	assert.Zero(t, AppConfig.AI.ReprocessInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("AI_TIMEOUT_SECONDS", "1.5")
	t.Setenv("AI_MAX_WORKERS", "not-a-number")
	t.Setenv("ADMIN_AUTH_REQUIRED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_TOKEN_SECRET", "legacy")
	t.Setenv("AI_REPROCESS_INTERVAL_MINUTES", "15")

	Load()

	assert.True(t, AppConfig.AI.Enabled())
	assert.Equal(t, 1500*time.Millisecond, AppConfig.AI.Timeout)
	assert.Equal(t, 2, AppConfig.AI.MaxWorkers)
	assert.False(t, AppConfig.Auth.AdminRequired)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, AppConfig.CORS.AllowedOrigins)
	assert.Equal(t, "legacy", AppConfig.JWT.Secret)
	assert.Equal(t, 15*time.Minute, AppConfig.AI.ReprocessInterval)
}
