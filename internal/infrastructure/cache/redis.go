package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eslsoft/subsearch/internal/infrastructure/config"
	"github.com/eslsoft/subsearch/internal/usecase"
)

const redisCachePrefix = "subsearch:cache:"

// envelope wraps a cached payload with its write time. Redis expiry is only
// advisory here; readers re-check WrittenAt against their own TTL.
type envelope struct {
	WrittenAt time.Time       `json:"written_at"`
	Payload   json.RawMessage `json:"payload"`
}

// RedisCache stores search responses in Redis with JSON serialization.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

var _ usecase.ResultCache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	data, err := r.client.Get(ctx, redisCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("cache get: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("cache entry decode: %w", err)
	}
	return env.Payload, env.WrittenAt, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	data, err := json.Marshal(envelope{WrittenAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("cache entry encode: %w", err)
	}
	if err := r.client.Set(ctx, redisCachePrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewClient builds the Redis client from application config.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
