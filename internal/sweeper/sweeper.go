package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

const (
	DEFAULT_SWEEP_INTERVAL = time.Minute
	DEFAULT_BATCH_SIZE     = 100
	DEFAULT_WORKER_POOL    = 4
)

// Sweeper defines the interface for sweeper implementations
// Sweepers are long-running background tasks that perform periodic maintenance
type Sweeper interface {
	// Start begins the sweeper's main loop
	// This is a blocking call that runs until the context is canceled
	Start(ctx context.Context) error

	// Stop gracefully stops the sweeper
	// This should wait for any in-progress work to complete
	Stop(ctx context.Context) error

	// Name returns the sweeper's name for logging and identification
	Name() string

	// SweepOnce runs a single sweep cycle
	SweepOnce(ctx context.Context) (Stats, error)
}

// Config holds configuration for a periodic sweeper
type Config struct {
	Interval       time.Duration // Time to sleep between sweep cycles
	BatchSize      int           // Records to process per cycle
	WorkerPoolSize int           // Concurrent workers
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DEFAULT_SWEEP_INTERVAL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DEFAULT_BATCH_SIZE
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = DEFAULT_WORKER_POOL
	}
	return c
}

// Stats summarises a sweep cycle
type Stats struct {
	// Found is the number of records the cycle picked up
	Found int
	// Applied is the number of transitions this sweeper committed
	Applied int
	// Skipped is the number of records another writer got to first
	Skipped int
	// Failed is the number of records that errored and will be retried next cycle
	Failed int
}

type counters struct {
	applied atomic.Int32
	skipped atomic.Int32
	failed  atomic.Int32
}

func (c *counters) stats(found int) Stats {
	return Stats{
		Found:   found,
		Applied: int(c.applied.Load()),
		Skipped: int(c.skipped.Load()),
		Failed:  int(c.failed.Load()),
	}
}

// loop drives a sweep function on an interval with graceful stop
type loop struct {
	name      string
	interval  time.Duration
	clock     adapter.Clock
	sweep     func(ctx context.Context) (Stats, error)
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

func newLoop(name string, interval time.Duration, clock adapter.Clock, sweep func(ctx context.Context) (Stats, error)) *loop {
	return &loop{
		name:      name,
		interval:  interval,
		clock:     clock,
		sweep:     sweep,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (l *loop) start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		l.running.Store(false)
		close(l.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting sweeper",
		zap.String("sweeper", l.name),
		zap.Duration("interval", l.interval),
	)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Sweeper stopping due to context cancellation",
				zap.String("sweeper", l.name), zap.Error(ctx.Err()))
			return nil
		case <-l.stopChan:
			logger.InfoCtx(ctx, "Sweeper stop requested", zap.String("sweeper", l.name))
			return nil
		default:
			if _, err := l.sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err, zap.String("sweeper", l.name))
			}
			if !l.sleep(ctx) {
				continue
			}
		}
	}
}

func (l *loop) stop(ctx context.Context) error {
	if !l.running.Load() {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping sweeper", zap.String("sweeper", l.name))

	select {
	case <-l.stopChan:
	default:
		close(l.stopChan)
	}

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-l.stoppedCh:
		logger.InfoCtx(ctx, "Sweeper stopped gracefully", zap.String("sweeper", l.name))
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Sweeper stop interrupted by context timeout", zap.String("sweeper", l.name))
		return ctx.Err()
	}
}

// sleep sleeps for the interval but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted
func (l *loop) sleep(ctx context.Context) bool {
	select {
	case <-l.clock.After(l.interval):
		return true
	case <-ctx.Done():
		return false
	case <-l.stopChan:
		return false
	}
}
