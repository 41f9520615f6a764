package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/store"
	"github.com/feral-file/ff-sovereignty/internal/wallet"
)

const (
	DEFAULT_REFUND_CREDIT_TIMEOUT     = 5 * time.Second
	DEFAULT_REFUND_CREDIT_MAX_ELAPSED = 10 * time.Second
	DEFAULT_REFUND_MAX_BACKOFF        = time.Hour
	// refunds failing this many times are reported on every further attempt
	REFUND_CRITICAL_ATTEMPTS = 5
)

// RefundConfig holds configuration for the refund sweeper
type RefundConfig struct {
	Config
	// CreditTimeout bounds each wallet call
	CreditTimeout time.Duration
	// CreditMaxElapsed bounds the inline retries of one credit
	CreditMaxElapsed time.Duration
	// MaxBackoff caps the delay between two cycles retrying the same refund
	MaxBackoff time.Duration
}

func (c RefundConfig) withDefaults() RefundConfig {
	c.Config = c.Config.withDefaults()
	if c.CreditTimeout <= 0 {
		c.CreditTimeout = DEFAULT_REFUND_CREDIT_TIMEOUT
	}
	if c.CreditMaxElapsed <= 0 {
		c.CreditMaxElapsed = DEFAULT_REFUND_CREDIT_MAX_ELAPSED
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DEFAULT_REFUND_MAX_BACKOFF
	}
	return c
}

// lease keeps claimed refunds away from other sweepers while a cycle credits them
func (c RefundConfig) lease() time.Duration {
	return c.CreditMaxElapsed + c.CreditTimeout + c.Interval
}

// refundSweeper credits the escrow releases recorded by auction writes.
// The wallet applies a reference once, so a refund credited by two sweepers
// or retried after a lost acknowledgement still moves funds once.
type refundSweeper struct {
	*loop
	config RefundConfig
	store  store.Store
	wallet wallet.Wallet
	clock  adapter.Clock
}

// NewRefundSweeper creates a new refund sweeper
func NewRefundSweeper(config RefundConfig, st store.Store, w wallet.Wallet, clock adapter.Clock) Sweeper {
	s := &refundSweeper{
		config: config.withDefaults(),
		store:  st,
		wallet: w,
		clock:  clock,
	}
	s.loop = newLoop(s.Name(), s.config.Interval, clock, s.SweepOnce)
	return s
}

// Name returns the sweeper's name
func (s *refundSweeper) Name() string {
	return "refund-sweeper"
}

func (s *refundSweeper) Start(ctx context.Context) error {
	return s.loop.start(ctx)
}

func (s *refundSweeper) Stop(ctx context.Context) error {
	return s.loop.stop(ctx)
}

// SweepOnce credits every due refund found in one batch
func (s *refundSweeper) SweepOnce(ctx context.Context) (Stats, error) {
	startTime := s.clock.Now()

	refunds, err := s.store.ClaimDueRefunds(ctx, store.ClaimRefundsInput{
		Now:   startTime,
		Lease: s.config.lease(),
		Limit: s.config.BatchSize,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to claim due refunds: %w", err)
	}
	if len(refunds) == 0 {
		logger.DebugCtx(ctx, "No refunds to credit")
		return Stats{}, nil
	}

	pool := pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	var c counters
	for _, r := range refunds {
		pool.Submit(func() {
			s.credit(ctx, r, &c)
		})
	}
	pool.StopAndWait()

	stats := c.stats(len(refunds))
	logger.InfoCtx(ctx, "Refund sweep completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("found", stats.Found),
		zap.Int("credited", stats.Applied),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (s *refundSweeper) credit(ctx context.Context, r domain.Refund, c *counters) {
	if err := s.creditWithRetry(ctx, r); err != nil {
		s.deferRefund(ctx, r, err, c)
		return
	}

	err := s.store.SettleRefund(ctx, r.Reference, s.clock.Now())
	if errors.Is(err, domain.ErrNotFound) {
		c.skipped.Add(1)
		return
	}
	if err != nil {
		// The credit went through; the next attempt replays the same reference
		c.failed.Add(1)
		logger.ErrorCtx(ctx, fmt.Errorf("failed to settle refund: %w", err), zap.String("reference", r.Reference))
		return
	}

	c.applied.Add(1)
	logger.InfoCtx(ctx, "Refund credited",
		zap.String("reference", r.Reference),
		zap.String("userID", r.UserID),
		zap.Int64("amount", r.Amount),
		zap.String("reason", string(r.Reason)),
		zap.Int("attempts", r.Attempts+1),
	)
}

// creditWithRetry retries transient wallet failures within CreditMaxElapsed
func (s *refundSweeper) creditWithRetry(ctx context.Context, r domain.Refund) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = s.config.CreditMaxElapsed

	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.config.CreditTimeout)
		defer cancel()

		err := s.wallet.Credit(callCtx, r.UserID, r.Amount, r.Reference)
		if err != nil && !errors.Is(err, domain.ErrExternalService) {
			return backoff.Permanent(err)
		}
		return err
	}

	notifyOnError := func(err error, duration time.Duration) {
		logger.WarnCtx(ctx, "Refund credit failed, retrying",
			zap.Error(err),
			zap.String("reference", r.Reference),
			zap.Duration("next_retry_in", duration),
		)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError)
}

func (s *refundSweeper) deferRefund(ctx context.Context, r domain.Refund, cause error, c *counters) {
	c.failed.Add(1)

	next := s.clock.Now().Add(s.nextBackoff(r.Attempts + 1))
	deferred, err := s.store.DeferRefund(ctx, store.DeferRefundInput{
		Reference:     r.Reference,
		Cause:         cause.Error(),
		NextAttemptAt: next,
	})
	if err != nil {
		// The lease runs out and the refund is claimed again
		logger.ErrorCtx(ctx, fmt.Errorf("failed to defer refund: %w", err), zap.String("reference", r.Reference))
		return
	}

	fields := []zap.Field{
		zap.String("reference", r.Reference),
		zap.String("userID", r.UserID),
		zap.Int64("amount", r.Amount),
		zap.Int("attempts", deferred.Attempts),
		zap.Time("nextAttemptAt", next),
	}
	if deferred.Attempts >= REFUND_CRITICAL_ATTEMPTS {
		logger.ErrorCtx(ctx, fmt.Errorf("CRITICAL: refund still not credited: %w", cause), fields...)
		return
	}
	logger.WarnCtx(ctx, "Refund deferred", append(fields, zap.Error(cause))...)
}

// nextBackoff doubles the sweep interval per failed attempt up to MaxBackoff
func (s *refundSweeper) nextBackoff(attempts int) time.Duration {
	d := s.config.Interval
	for i := 1; i < attempts && d < s.config.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, s.config.MaxBackoff)
}
