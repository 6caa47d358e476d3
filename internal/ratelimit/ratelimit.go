// Package ratelimit throttles viewer mutations per identity.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// New returns a Redis-backed limiter when redisURL is set and reachable, and
// an in-process limiter otherwise. The returned close func releases the
// Redis client, if any.
func New(ctx context.Context, redisURL string, perMinute int, logger *zap.Logger) (Limiter, func() error) {
	noop := func() error { return nil }
	if redisURL == "" {
		logger.Info("rate limiter: in-process", zap.Int("per_minute", perMinute))
		return NewLocal(perMinute), noop
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("rate limiter: invalid redis URL, using in-process limiter", zap.Error(err))
		return NewLocal(perMinute), noop
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("rate limiter: redis unreachable, using in-process limiter", zap.Error(err))
		_ = rdb.Close()
		return NewLocal(perMinute), noop
	}
	logger.Info("rate limiter: redis", zap.String("addr", opts.Addr), zap.Int("per_minute", perMinute))
	return NewRedis(rdb, perMinute), rdb.Close
}
