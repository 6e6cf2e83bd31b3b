package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		t.Setenv("SCHOOL_TIMEZONE", "")
		t.Setenv("CALENDAR_CACHE_BACKEND", "")
		t.Setenv("CALENDAR_FETCH_TIMEOUT_SECONDS", "")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "Asia/Bangkok", cfg.App.Timezone)
		assert.Equal(t, "redis", cfg.Calendar.CacheBackend)
		assert.Equal(t, 5*time.Second, cfg.Calendar.FetchTimeout())
		assert.Equal(t, 5*time.Minute, cfg.Calendar.CacheTTL())
		assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	})

	t.Run("should read overrides", func(t *testing.T) {
		t.Setenv("SCHOOL_TIMEZONE", "Europe/London")
		t.Setenv("CALENDAR_CACHE_BACKEND", "memory")
		t.Setenv("CALENDAR_FETCH_TIMEOUT_SECONDS", "2")
		t.Setenv("APP_PORT", "9000")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "Europe/London", cfg.App.Location().String())
		assert.Equal(t, "memory", cfg.Calendar.CacheBackend)
		assert.Equal(t, 2*time.Second, cfg.Calendar.FetchTimeout())
		assert.Equal(t, "0.0.0.0:9000", cfg.App.Addr())
	})

	t.Run("should reject unknown cache backend", func(t *testing.T) {
		t.Setenv("CALENDAR_CACHE_BACKEND", "memcached")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("should reject invalid timezone", func(t *testing.T) {
		t.Setenv("SCHOOL_TIMEZONE", "Mars/Olympus")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("should fall back on malformed ints", func(t *testing.T) {
		t.Setenv("CALENDAR_CACHE_BACKEND", "")
		t.Setenv("SCHOOL_TIMEZONE", "")
		t.Setenv("CALENDAR_CACHE_TTL_SECONDS", "soon")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 300, cfg.Calendar.CacheTTLSeconds)
	})
}
