package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/eventica/internal/config"
)

// cachedResponse is what a listing route stores in Redis.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

// bodyRecorder tees the response into a buffer until limit bytes; past that
// the response is marked too large and is not cached.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflow = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKey is "<prefix>:<sha1>" over the parts selected by the strategy, so
// Invalidate can drop every entry by prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{c.Path()}
	case "method_route_query":
		parts = []string{r.Method, c.Path(), r.URL.RawQuery}
	default: // route_query
		parts = []string{c.Path(), r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// Invalidate drops every cached response under prefix.  Event and review
// writes call it so listings never outlive the data they were built from.
func Invalidate(ctx context.Context, rdb *redis.Client, prefix string) error {
	if rdb == nil {
		return nil
	}
	const batchSize = 200
	iter := rdb.Scan(ctx, 0, prefix+":*", batchSize).Iterator()
	batch := make([]string, 0, batchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == batchSize {
			if err := rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// replay writes a cached response.  Content-Length is recomputed by the
// server.
func replay(c echo.Context, cr cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range cr.Header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cr.Status)
	_, err := c.Response().Write(cr.Body)
	return err
}

// NewRedisCache caches 200 responses of the wrapped routes in Redis.
// Headers and body are stored together so a hit replays the exact response.
// Requests carrying an Authorization header bypass the cache.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[req.Method] || req.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}
			ctx := req.Context()
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cr cachedResponse
				if json.Unmarshal(raw, &cr) == nil && cr.Status != 0 {
					cacheLookups.WithLabelValues("hit").Inc()
					return replay(c, cr)
				}
			}
			cacheLookups.WithLabelValues("miss").Inc()

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}

			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			raw, err := json.Marshal(cachedResponse{Status: rec.status, Header: hdr, Body: rec.buf.Bytes()})
			if err == nil {
				// The request context may already be done once the body is out.
				_ = rdb.Set(context.WithoutCancel(ctx), key, raw, ttl).Err()
			}
			return nil
		}
	}
}
