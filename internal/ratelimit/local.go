package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
)

const defaultCacheSize = 10000

// localLimiter keeps one token bucket per key in process memory.
// Buckets are held in a bounded LRU so idle users are forgotten.
type localLimiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	clock   adapter.Clock
}

// NewLocalLimiter creates an in-process token bucket limiter
func NewLocalLimiter(cacheSize int, clock adapter.Clock) (Limiter, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	buckets, err := lru.New[string, *rate.Limiter](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket cache: %w", err)
	}
	return &localLimiter{buckets: buckets, clock: clock}, nil
}

func (l *localLimiter) Allow(_ context.Context, key string, rule Rule) (Decision, error) {
	if !rule.Valid() {
		return Decision{Allowed: true}, nil
	}

	now := l.clock.Now()
	bucket := l.bucket(key, rule)

	if bucket.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: int(math.Floor(bucket.TokensAt(now)))}, nil
	}

	// Time until one whole token has been refilled
	missing := 1 - bucket.TokensAt(now)
	retryAfter := time.Duration(missing / float64(bucket.Limit()) * float64(time.Second))
	return Decision{Allowed: false, RetryAfter: max(retryAfter, time.Millisecond)}, nil
}

func (l *localLimiter) bucket(key string, rule Rule) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	every := rate.Every(rule.Period / time.Duration(rule.Limit))
	if b, ok := l.buckets.Get(key); ok && b.Limit() == every && b.Burst() == rule.Limit {
		return b
	}

	b := rate.NewLimiter(every, rule.Limit)
	l.buckets.Add(key, b)
	return b
}

func (l *localLimiter) Close() error {
	l.buckets.Purge()
	return nil
}
