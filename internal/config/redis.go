package config

// Redis backs session revocation (logout).  When REDIS_ADDR is empty or the
// server cannot be reached at startup, NewRedisClient returns nil and callers
// degrade by disabling revocation.

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from the configuration and pings
// it with a short timeout.  The returned client is nil when Redis is not
// configured or unreachable.
func NewRedisClient(ctx context.Context, cfg Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
