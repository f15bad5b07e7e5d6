package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("API_PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_TTL", "2h")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address())
	assert.Equal(t, "telehealth", cfg.Mongo.Database)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.SMS.Enabled)
}

func TestValidate(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := &Config{
			Mongo:     MongoConfig{URI: "mongodb://x", Database: "db"},
			RateLimit: RateLimitConfig{AuthRequestsPerMinute: 1, AuthBurst: 1},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET is required")
	})

	t.Run("sms enabled without key", func(t *testing.T) {
		cfg := &Config{
			JWT:       JWTConfig{Secret: "s"},
			Mongo:     MongoConfig{URI: "mongodb://x", Database: "db"},
			RateLimit: RateLimitConfig{AuthRequestsPerMinute: 1, AuthBurst: 1},
			SMS:       SMSConfig{Enabled: true},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TEXTBELT_API_KEY")
	})

	t.Run("short secret in production", func(t *testing.T) {
		cfg := &Config{
			Env:       "production",
			JWT:       JWTConfig{Secret: "short"},
			Mongo:     MongoConfig{URI: "mongodb://x", Database: "db"},
			RateLimit: RateLimitConfig{AuthRequestsPerMinute: 1, AuthBurst: 1},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero auth burst", func(t *testing.T) {
		cfg := &Config{
			JWT:       JWTConfig{Secret: "s"},
			Mongo:     MongoConfig{URI: "mongodb://x", Database: "db"},
			RateLimit: RateLimitConfig{AuthRequestsPerMinute: 1},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATE_LIMIT_AUTH_BURST")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := &Config{
			JWT:       JWTConfig{Secret: "s"},
			Mongo:     MongoConfig{URI: "mongodb://x", Database: "db"},
			RateLimit: RateLimitConfig{AuthRequestsPerMinute: 1, AuthBurst: 1},
		}
		assert.NoError(t, cfg.Validate())
	})
}
