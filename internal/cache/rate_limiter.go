package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per scope and subject.
type RateLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: int64(max), window: window}
}

// Allow records one action and reports whether it fits the window. Without
// Redis, or with a non-positive max, everything is allowed.
func (rl *RateLimiter) Allow(ctx context.Context, scope, subject string) (bool, error) {
	if rl == nil || rl.rdb == nil || rl.max <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("rate:%s:%s", scope, subject)
	// SET NX EX and INCR share one MULTI; the counter always carries the TTL
	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetArgs(ctx, key, 0, redis.SetArgs{Mode: "NX", TTL: rl.window})
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return true, err
	}
	count, err := incr.Result()
	if err != nil {
		return true, err
	}
	return count <= rl.max, nil
}
