package sweeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
	"github.com/feral-file/ff-sovereignty/internal/store"
)

// protectionSweeper demotes territories whose protection deadline has passed.
// Several instances may run at once; the versioned write lets exactly one
// commit each expiry and the others skip it.
type protectionSweeper struct {
	*loop
	config      Config
	store       store.Store
	broadcaster reconcile.Broadcaster
	clock       adapter.Clock
}

// NewProtectionSweeper creates a new protection expiry sweeper
func NewProtectionSweeper(config Config, st store.Store, broadcaster reconcile.Broadcaster, clock adapter.Clock) Sweeper {
	s := &protectionSweeper{
		config:      config.withDefaults(),
		store:       st,
		broadcaster: broadcaster,
		clock:       clock,
	}
	s.loop = newLoop(s.Name(), s.config.Interval, clock, s.SweepOnce)
	return s
}

// Name returns the sweeper's name
func (s *protectionSweeper) Name() string {
	return "protection-sweeper"
}

func (s *protectionSweeper) Start(ctx context.Context) error {
	return s.loop.start(ctx)
}

func (s *protectionSweeper) Stop(ctx context.Context) error {
	return s.loop.stop(ctx)
}

// SweepOnce expires every lapsed protection found in one batch
func (s *protectionSweeper) SweepOnce(ctx context.Context) (Stats, error) {
	startTime := s.clock.Now()

	territories, err := s.store.ListExpiredProtections(ctx, startTime, s.config.BatchSize)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list expired protections: %w", err)
	}
	if len(territories) == 0 {
		logger.DebugCtx(ctx, "No protections to expire")
		return Stats{}, nil
	}

	pool := pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	var c counters
	for _, t := range territories {
		pool.Submit(func() {
			s.expire(ctx, t, &c)
		})
	}
	pool.StopAndWait()

	stats := c.stats(len(territories))
	logger.InfoCtx(ctx, "Protection sweep completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("found", stats.Found),
		zap.Int("expired", stats.Applied),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (s *protectionSweeper) expire(ctx context.Context, t domain.Territory, c *counters) {
	expired, err := s.store.ExpireProtection(ctx, store.ExpireProtectionInput{
		TerritoryID:     t.ID,
		ExpectedVersion: t.Version,
		Now:             s.clock.Now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNoOp):
		c.skipped.Add(1)
		logger.DebugCtx(ctx, "Protection already handled",
			zap.String("territoryID", t.ID),
			zap.Int64("version", t.Version),
		)
		return
	default:
		c.failed.Add(1)
		logger.ErrorCtx(ctx, fmt.Errorf("failed to expire protection: %w", err), zap.String("territoryID", t.ID))
		return
	}

	c.applied.Add(1)
	logger.InfoCtx(ctx, "Protection expired",
		zap.String("territoryID", expired.ID),
		zap.String("sovereignty", string(expired.Sovereignty)),
		zap.Int64("version", expired.Version),
	)
	s.broadcaster.Publish(ctx, reconcile.ProtectionExpired{Territory: *expired})
}
