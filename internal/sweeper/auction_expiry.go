package sweeper

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/store"
)

// auctionExpirySweeper settles auctions whose end time has passed and that no
// request has touched since. Settlement goes through the engine so the
// transfer, refunds and deltas match the lazy path.
type auctionExpirySweeper struct {
	*loop
	config Config
	store  store.Store
	engine auction.Engine
	clock  adapter.Clock
}

// NewAuctionExpirySweeper creates a new auction expiry sweeper
func NewAuctionExpirySweeper(config Config, st store.Store, engine auction.Engine, clock adapter.Clock) Sweeper {
	s := &auctionExpirySweeper{
		config: config.withDefaults(),
		store:  st,
		engine: engine,
		clock:  clock,
	}
	s.loop = newLoop(s.Name(), s.config.Interval, clock, s.SweepOnce)
	return s
}

// Name returns the sweeper's name
func (s *auctionExpirySweeper) Name() string {
	return "auction-expiry-sweeper"
}

func (s *auctionExpirySweeper) Start(ctx context.Context) error {
	return s.loop.start(ctx)
}

func (s *auctionExpirySweeper) Stop(ctx context.Context) error {
	return s.loop.stop(ctx)
}

// SweepOnce settles every expired auction found in one batch
func (s *auctionExpirySweeper) SweepOnce(ctx context.Context) (Stats, error) {
	startTime := s.clock.Now()

	auctions, err := s.store.ListExpiredAuctions(ctx, startTime, s.config.BatchSize)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	if len(auctions) == 0 {
		logger.DebugCtx(ctx, "No auctions to settle")
		return Stats{}, nil
	}

	pool := pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	var c counters
	for _, a := range auctions {
		pool.Submit(func() {
			s.settle(ctx, a, &c)
		})
	}
	pool.StopAndWait()

	stats := c.stats(len(auctions))
	logger.InfoCtx(ctx, "Auction expiry sweep completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("found", stats.Found),
		zap.Int("settled", stats.Applied),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (s *auctionExpirySweeper) settle(ctx context.Context, a domain.Auction, c *counters) {
	settled, committed, err := s.engine.SettleExpired(ctx, a.ID)
	if err != nil {
		c.failed.Add(1)
		logger.ErrorCtx(ctx, fmt.Errorf("failed to settle auction: %w", err), zap.String("auctionID", a.ID))
		return
	}

	// Settled, cancelled or bought out by another writer since the listing
	if !committed {
		c.skipped.Add(1)
		logger.DebugCtx(ctx, "Auction already closed",
			zap.String("auctionID", settled.ID),
			zap.String("status", string(settled.Status)),
		)
		return
	}
	c.applied.Add(1)
	logger.InfoCtx(ctx, "Auction settled by sweeper",
		zap.String("auctionID", settled.ID),
		zap.String("territoryID", settled.TerritoryID),
		zap.Stringp("winnerID", settled.HighestBidderID),
	)
}
