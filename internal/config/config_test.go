package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBodySize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 20, cfg.RateLimitRPS)
}
