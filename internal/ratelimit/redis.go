package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter shared by every API instance.
type Redis struct {
	rdb    redis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedis allows perMinute requests per key in each wall-clock minute.
func NewRedis(rdb redis.Cmdable, perMinute int) *Redis {
	return &Redis{rdb: rdb, limit: int64(perMinute), window: time.Minute, now: time.Now}
}

func windowKey(key string, at time.Time, window time.Duration) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, at.Unix()/int64(window.Seconds()))
}

func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := windowKey(key, l.now(), l.window)

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}
