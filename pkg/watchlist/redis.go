package watchlist

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/redis"
)

// RedisStorage stores payloads as plain Redis strings. A zero ttl keeps keys forever.
type RedisStorage struct {
	rds *redis.Redis
	ttl int
}

func NewRedisStorage(rds *redis.Redis, ttlSeconds int) *RedisStorage {
	return &RedisStorage{rds: rds, ttl: ttlSeconds}
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rds.GetCtx(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("watchlist: redis get %s: %w", key, err)
	}
	// go-zero reports a missing key as an empty value.
	if val == "" {
		return nil, ErrNotFound
	}
	return []byte(val), nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, payload []byte) error {
	var err error
	if r.ttl > 0 {
		err = r.rds.SetexCtx(ctx, key, string(payload), r.ttl)
	} else {
		err = r.rds.SetCtx(ctx, key, string(payload))
	}
	if err != nil {
		return fmt.Errorf("watchlist: redis set %s: %w", key, err)
	}
	return nil
}
