package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/config"
	"github.com/iliyamo/eventica/internal/logger"
)

// rateLimited counts rejected requests per limiter prefix.
var rateLimited = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by a token bucket",
	},
	[]string{"bucket"},
)

// bucketScript refills and takes one token atomically.  State is one hash
// per key: tokens and the time of the last whole refill.
//
// KEYS[1] bucket key
// ARGV    now_ms, capacity, refill_tokens, interval_ms, ttl_seconds
// returns {allowed, remaining, retry_after_ms}
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
  tokens = capacity
  last = now_ms
end

if interval_ms > 0 and refill > 0 then
  local n = math.floor(math.max(0, now_ms - last) / interval_ms)
  if n > 0 then
    tokens = math.min(capacity, tokens + n * refill)
    last = last + n * interval_ms
  end
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, interval_ms - (now_ms - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last)
redis.call('EXPIRE', key, ttl)
return { allowed, tokens, retry_ms }
`)

// decision is the outcome of one bucket take.
type decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// parseDecision reads the script's reply.  Redis returns Lua numbers as
// int64 but the conversion stays lenient.
func parseDecision(v interface{}) (decision, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return decision{}, fmt.Errorf("unexpected limiter reply %v", v)
	}
	return decision{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

func take(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (decision, error) {
	v, err := bucketScript.Run(ctx, rdb, []string{key},
		now.UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Result()
	if err != nil {
		return decision{}, err
	}
	return parseDecision(v)
}

// NewTokenBucket limits requests with a Redis-backed token bucket.  Without
// Redis, or when disabled, it passes everything through; Redis errors also
// let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logger.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = logger.Nop()
	}
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			d, err := take(c.Request().Context(), rdb, cfg, key, time.Now())
			if err != nil {
				log.Warn("ratelimit: redis error", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.Allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			rateLimited.WithLabelValues(cfg.Prefix).Inc()
			log.Debug("ratelimit: blocked", zap.String("key", key), zap.Duration("retry_after", d.RetryAfter))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too many requests, please try again later",
				"retry_after": secs,
			})
		}
	}
}

// rateKey builds "<prefix>:<dimension>:<value>..." from the configured
// strategy.  Unknown strategies use ip, user and route together.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	dims := map[string][]string{
		"ip":    {"ip", ip},
		"user":  {"user", userKey(c)},
		"route": {"route", c.Request().Method + " " + c.Path()},
	}
	var order []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip", "user", "route":
		order = []string{strings.ToLower(cfg.KeyStrategy)}
	case "ip_user":
		order = []string{"ip", "user"}
	case "ip_route":
		order = []string{"ip", "route"}
	case "user_route":
		order = []string{"user", "route"}
	default:
		order = []string{"ip", "user", "route"}
	}
	parts := []string{cfg.Prefix}
	for _, d := range order {
		parts = append(parts, dims[d]...)
	}
	return strings.Join(parts, ":")
}
