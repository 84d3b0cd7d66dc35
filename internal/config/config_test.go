package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("OTP_EXPIRY_MINUTES", "")
	t.Setenv("CORS_ORIGINS", " http://a.example , ,http://b.example")

	cfg := Load()
	assert.True(t, cfg.IsSQLite())
	assert.Equal(t, "eventica.db", cfg.DBPath)
	assert.Equal(t, 43200, cfg.AccessTTLMin)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "@every 1m", cfg.OTPPurgeCron)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.Mail.SMTPAddr)
}

func TestLoadOTPExpiry(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("OTP_EXPIRY_MINUTES", "3")
	assert.Equal(t, 3*time.Minute, Load().OTPTTL)
}

func TestRateLimitConfigNormalized(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)

	otp := LoadOTPRateLimitConfig()
	assert.Equal(t, 5, otp.Capacity)
	assert.Equal(t, time.Minute, otp.RefillInterval)
	assert.Equal(t, "ip_route", otp.KeyStrategy)
}

func TestCacheAndRedisConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")
	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "cache:events", cfg.Prefix)

	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	r := LoadRedisConfig()
	assert.Equal(t, "cache:6380", r.Addr)
	assert.True(t, r.TLS)
}

func TestPublicURL(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "sqlite3")

	t.Setenv("PUBLIC_URL", "")
	assert.Equal(t, "http://localhost:8080", Load().PublicURL)
	t.Setenv("PUBLIC_URL", "https://events.example/")
	assert.Equal(t, "https://events.example", Load().PublicURL)
}
