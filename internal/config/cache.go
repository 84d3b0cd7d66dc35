package config

import (
	"strings"
	"time"
)

// CacheConfig controls the listing cache.  Entries live under Prefix so an
// event or review write can drop them all; bodies over MaxBodyBytes are
// served but never stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      map[string]bool{},
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strings.ToLower(envStr("CACHE_KEY_STRATEGY", "route_query")),
		Prefix:       strings.TrimSuffix(envStr("CACHE_PREFIX", "cache:events"), ":"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	for _, m := range splitList(envStr("CACHE_METHODS", "GET")) {
		cfg.Methods[strings.ToUpper(m)] = true
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
