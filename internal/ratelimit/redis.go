package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter counts fixed windows in Redis so several instances share one
// budget per key. INCR creates the counter, and the first hit of a window
// attaches the expiry that defines the window end.
//
// When Redis is unreachable the limiter allows the request and logs the
// failure. Losing rate limiting briefly is preferable to taking the contact
// form down with the cache.
type RedisLimiter struct {
	client *redis.Client
	log    *zap.Logger
	prefix string
}

// NewRedisLimiter wraps an existing Redis client.
func NewRedisLimiter(client *redis.Client, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		log:    log,
		prefix: "ratelimit:",
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (Result, error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Result{Allowed: true, Remaining: 1}, nil
	}

	redisKey := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("rate limit backend unavailable, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		return Result{Allowed: true, Remaining: 1}, nil
	}

	count := int(incr.Val())
	if count > rule.Limit {
		ttl, err := l.client.PTTL(ctx, redisKey).Result()
		if err != nil || ttl <= 0 {
			ttl = rule.Window
		}
		return Result{
			Allowed:           false,
			RetryAfterSeconds: retryAfterSeconds(time.Now().Add(ttl), time.Now()),
			Remaining:         0,
		}, nil
	}

	return Result{Allowed: true, Remaining: rule.Limit - count}, nil
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
