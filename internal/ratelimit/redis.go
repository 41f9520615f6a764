package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

const (
	defaultKeyPrefix    = "ff:sovereignty:limiter:"
	healthCheckInterval = 10 * time.Second
)

// redisLimiter shares buckets across API replicas through Redis.
// When Redis is unreachable, admission falls back to the local limiter
// until the health check sees Redis again.
type redisLimiter struct {
	redis          adapter.RedisClient
	distributed    adapter.RedisRateLimiter
	fallback       Limiter
	clock          adapter.Clock
	keyPrefix      string
	redisAvailable atomic.Bool
	done           chan struct{}
	closeOnce      sync.Once
}

// NewRedisLimiter creates a distributed limiter with a local fallback
func NewRedisLimiter(rc adapter.RedisClient, fallback Limiter, clock adapter.Clock, keyPrefix string) Limiter {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	l := &redisLimiter{
		redis:       rc,
		distributed: rc.NewRateLimiter(),
		fallback:    fallback,
		clock:       clock,
		keyPrefix:   keyPrefix,
		done:        make(chan struct{}),
	}

	// Test Redis connectivity
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, will use local fallback", zap.Error(err))
	} else {
		l.redisAvailable.Store(true)
	}

	go l.monitorRedisHealth(l.clock.NewTicker(healthCheckInterval))

	return l
}

func (l *redisLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if !rule.Valid() {
		return Decision{Allowed: true}, nil
	}

	if l.redisAvailable.Load() {
		res, err := l.distributed.Allow(ctx, l.keyPrefix+key, redis_rate.Limit{
			Rate:   rule.Limit,
			Burst:  rule.Limit,
			Period: rule.Period,
		})
		if err == nil {
			return Decision{
				Allowed:    res.Allowed > 0,
				Remaining:  res.Remaining,
				RetryAfter: max(res.RetryAfter, 0),
			}, nil
		}
		if ctx.Err() != nil {
			return Decision{}, ctx.Err()
		}

		// Redis error - mark as unavailable and fall back to local
		l.redisAvailable.Store(false)
		logger.WarnCtx(ctx, "Redis rate limiter error, falling back to local",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	d, err := l.fallback.Allow(ctx, key, rule)
	if err != nil {
		return Decision{}, fmt.Errorf("local rate limiter failed: %w", err)
	}
	return d, nil
}

// monitorRedisHealth periodically checks Redis health and updates availability status
func (l *redisLimiter) monitorRedisHealth(ticker *time.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := l.redis.Ping(ctx).Err()
		cancel()

		available := err == nil
		if was := l.redisAvailable.Swap(available); !was && available {
			logger.Info("Redis connection restored")
		}
	}
}

// Close stops the health check and closes the Redis connection
func (l *redisLimiter) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)

		if closeErr := l.redis.Close(); closeErr != nil {
			logger.Warn("Error closing Redis connection", zap.Error(closeErr))
			err = closeErr
		}
		if closeErr := l.fallback.Close(); closeErr != nil {
			err = closeErr
		}
	})
	return err
}
