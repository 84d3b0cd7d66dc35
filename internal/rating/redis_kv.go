package rating

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores local review lists in Redis.  Entries never expire.
type RedisKV struct {
	rdb *redis.Client
}

func NewRedisKV(rdb *redis.Client) *RedisKV { return &RedisKV{rdb: rdb} }

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return bs, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}
