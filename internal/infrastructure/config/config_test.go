package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
		assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
		assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
		assert.Equal(t, 5*time.Minute, cfg.Cache.SearchTTL)
		assert.Equal(t, 10*time.Minute, cfg.Cache.LLMTTL)
		assert.Equal(t, 20, cfg.RateLimit.MaxRequests)
		assert.Equal(t, StoreMemory, cfg.RateLimit.Store)
		assert.Equal(t, time.Second, cfg.DedupWindow)
		assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("GEMINI_API_KEY", "gemini-key")
		t.Setenv("SPOONACULAR_API_KEY", "search-key")
		t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")
		t.Setenv("APP_CACHE_SEARCH_TTL", "1m")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
		assert.Equal(t, "search-key", cfg.Search.APIKey)
		assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
		assert.Equal(t, time.Minute, cfg.Cache.SearchTTL)
	})

	t.Run("openrouter key fallback", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("LLM_PROVIDER", ProviderOpenRouter)
		t.Setenv("OPENROUTER_API_KEY", "or-key")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "or-key", cfg.LLM.APIKey)
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt secret")
	})

	t.Run("database store requires dsn", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("RATE_LIMIT_STORE", StoreDatabase)

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database dsn")
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("RATE_LIMIT_STORE", "etcd")

		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey(""))
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "abcd...6789", MaskAPIKey("abcdef0123456789"))
}
