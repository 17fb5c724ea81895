package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Redis is a fixed-window counter per key.
type Redis struct {
	client counter
	limit  int64
	window time.Duration
	prefix string
}

func NewRedis(client counter, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: int64(limit), window: window, prefix: "intake:rl:"}
}

// Dial parses a redis:// URL and checks the server is reachable.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return c, nil
}

// Allow counts one hit for key and reports whether it is within the limit.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := r.prefix + key
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	return n <= r.limit, nil
}
