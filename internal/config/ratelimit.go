package config

import (
	"strings"
	"time"
)

// RateLimitConfig describes one token bucket.  Prefix namespaces its Redis
// keys so several buckets can share a server.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig is the general API limit (RATE_LIMIT_*).
func LoadRateLimitConfig() RateLimitConfig {
	return loadBucket("RATE_LIMIT", RateLimitConfig{
		Enabled:        true,
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "rl",
	})
}

// LoadOTPRateLimitConfig is the stricter limit on code requests and
// verification attempts (OTP_RATE_LIMIT_*).  It is always keyed by client
// IP and route; the caller is anonymous on these endpoints.
func LoadOTPRateLimitConfig() RateLimitConfig {
	cfg := loadBucket("OTP_RATE_LIMIT", RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            30 * time.Minute,
		Prefix:         "rl_otp",
	})
	cfg.KeyStrategy = "ip_route"
	return cfg
}

// loadBucket overlays <env>_* variables on def.  <env>_REFILL_EVERY is a
// shorthand for one token per interval; <env>_BURST overrides capacity.
func loadBucket(env string, def RateLimitConfig) RateLimitConfig {
	key := func(s string) string { return env + "_" + s }
	cfg := RateLimitConfig{
		Enabled:        envBool(key("ENABLED"), def.Enabled),
		Capacity:       envInt(key("CAPACITY"), def.Capacity),
		RefillTokens:   envInt(key("REFILL_TOKENS"), def.RefillTokens),
		RefillInterval: envDur(key("REFILL_INTERVAL"), def.RefillInterval),
		TTL:            envDur(key("TTL"), def.TTL),
		KeyStrategy:    strings.ToLower(envStr(key("KEY_STRATEGY"), def.KeyStrategy)),
		Prefix:         envStr(key("PREFIX"), def.Prefix),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt(key("BURST"), -1); b > 0 {
		cfg.Capacity = b
	}
	if every := envDur(key("REFILL_EVERY"), 0); every > 0 {
		cfg.RefillTokens, cfg.RefillInterval = 1, every
	}

	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// Keys must outlive a full refill or an idle client regains a full
	// bucket early.
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
