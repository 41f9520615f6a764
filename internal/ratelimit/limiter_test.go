package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/mocks"
	"github.com/feral-file/ff-sovereignty/internal/ratelimit"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLocalLimiter_Allow(t *testing.T) {
	clock := adapter.NewManualClock(testStart)
	limiter, err := ratelimit.NewLocalLimiter(16, clock)
	require.NoError(t, err)
	defer func() { _ = limiter.Close() }()

	ctx := context.Background()
	rule := ratelimit.Rule{Limit: 2, Period: time.Second}

	d, err := limiter.Allow(ctx, "bid:alice:STANDARD", rule)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, _ = limiter.Allow(ctx, "bid:alice:STANDARD", rule)
	assert.True(t, d.Allowed)

	d, _ = limiter.Allow(ctx, "bid:alice:STANDARD", rule)
	assert.False(t, d.Allowed)
	assert.InDelta(t, float64(500*time.Millisecond), float64(d.RetryAfter), float64(time.Millisecond))

	// other keys have their own budget
	d, _ = limiter.Allow(ctx, "bid:alice:PROTECTION_EXTENSION", rule)
	assert.True(t, d.Allowed)
	d, _ = limiter.Allow(ctx, "bid:bob:STANDARD", rule)
	assert.True(t, d.Allowed)

	clock.Advance(500 * time.Millisecond)
	d, _ = limiter.Allow(ctx, "bid:alice:STANDARD", rule)
	assert.True(t, d.Allowed)
}

func TestLocalLimiter_InvalidRuleAllows(t *testing.T) {
	limiter, err := ratelimit.NewLocalLimiter(0, adapter.NewManualClock(testStart))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		d, err := limiter.Allow(context.Background(), "k", ratelimit.Rule{})
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

// testRedisMocks contains all the mocks needed for testing the redis limiter
type testRedisMocks struct {
	ctrl             *gomock.Controller
	redisClient      *mocks.MockRedisClient
	redisRateLimiter *mocks.MockRedisRateLimiter
	fallback         *mocks.MockLimiter
	clock            *mocks.MockClock
}

func setupRedisLimiter(t *testing.T, redisAvailable bool) (ratelimit.Limiter, *testRedisMocks) {
	ctrl := gomock.NewController(t)
	tm := &testRedisMocks{
		ctrl:             ctrl,
		redisClient:      mocks.NewMockRedisClient(ctrl),
		redisRateLimiter: mocks.NewMockRedisRateLimiter(ctrl),
		fallback:         mocks.NewMockLimiter(ctrl),
		clock:            mocks.NewMockClock(ctrl),
	}

	statusCmd := redis.NewStatusCmd(context.Background())
	if redisAvailable {
		statusCmd.SetVal("PONG")
	} else {
		statusCmd.SetErr(errors.New("connection refused"))
	}
	tm.redisClient.EXPECT().NewRateLimiter().Return(tm.redisRateLimiter)
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(statusCmd)
	tm.clock.EXPECT().NewTicker(10 * time.Second).Return(time.NewTicker(time.Hour))

	limiter := ratelimit.NewRedisLimiter(tm.redisClient, tm.fallback, tm.clock, "test:")
	t.Cleanup(func() {
		tm.redisClient.EXPECT().Close().Return(nil).AnyTimes()
		tm.fallback.EXPECT().Close().Return(nil).AnyTimes()
		_ = limiter.Close()
	})
	return limiter, tm
}

func TestRedisLimiter_Allow(t *testing.T) {
	rule := ratelimit.Rule{Limit: 5, Period: time.Second}
	expectedLimit := redis_rate.Limit{Rate: 5, Burst: 5, Period: time.Second}

	t.Run("allowed", func(t *testing.T) {
		limiter, tm := setupRedisLimiter(t, true)

		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:bid:alice:STANDARD", expectedLimit).
			Return(&redis_rate.Result{Allowed: 1, Remaining: 4, RetryAfter: -1}, nil)

		d, err := limiter.Allow(context.Background(), "bid:alice:STANDARD", rule)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 4, d.Remaining)
		assert.Equal(t, time.Duration(0), d.RetryAfter)
	})

	t.Run("limited", func(t *testing.T) {
		limiter, tm := setupRedisLimiter(t, true)

		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:bid:alice:STANDARD", expectedLimit).
			Return(&redis_rate.Result{Allowed: 0, Remaining: 0, RetryAfter: 200 * time.Millisecond}, nil)

		d, err := limiter.Allow(context.Background(), "bid:alice:STANDARD", rule)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 200*time.Millisecond, d.RetryAfter)
	})

	t.Run("redis error falls back to local and stays there", func(t *testing.T) {
		limiter, tm := setupRedisLimiter(t, true)

		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("i/o timeout")).
			Times(1)
		tm.fallback.EXPECT().
			Allow(gomock.Any(), "bid:alice:STANDARD", rule).
			Return(ratelimit.Decision{Allowed: true}, nil).
			Times(2)

		d, err := limiter.Allow(context.Background(), "bid:alice:STANDARD", rule)
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = limiter.Allow(context.Background(), "bid:alice:STANDARD", rule)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("redis down at startup uses local", func(t *testing.T) {
		limiter, tm := setupRedisLimiter(t, false)

		tm.fallback.EXPECT().
			Allow(gomock.Any(), "buy_now:alice", rule).
			Return(ratelimit.Decision{Allowed: false, RetryAfter: time.Second}, nil)

		d, err := limiter.Allow(context.Background(), "buy_now:alice", rule)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, time.Second, d.RetryAfter)
	})
}
