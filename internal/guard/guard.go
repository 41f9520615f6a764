package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/ratelimit"
)

const (
	defaultMaxConflictRetries = 3
	retryInitialInterval      = 10 * time.Millisecond
	retryMaxInterval          = 200 * time.Millisecond
)

// Config holds the admission rules of the guard
type Config struct {
	// BidRule limits bids per user and auction type
	BidRule ratelimit.Rule
	// BuyNowRule limits instant purchases per user
	BuyNowRule ratelimit.Rule
	// MaxConflictRetries bounds the re-read and retry of a lost write
	MaxConflictRetries int
}

// BidRequest is a bid as submitted by a client
type BidRequest struct {
	AuctionID string
	BidderID  string
	Amount    int64
	// ObservedVersion is the auction version the client acted on, if it sent one
	ObservedVersion *int64
}

// BuyNowRequest is an instant purchase as submitted by a client
type BuyNowRequest struct {
	TerritoryID string
	BuyerID     string
	// ObservedVersion is the territory version the client acted on, if it sent one
	ObservedVersion *int64
	// MaxPrice rejects the purchase when the authoritative price moved above it
	MaxPrice *int64
}

// Guard admits bids and purchases into the engine
//
//go:generate mockgen -source=guard.go -destination=../mocks/guard.go -package=mocks -mock_names=Guard=MockGuard
type Guard interface {
	// PlaceBid rate limits, checks freshness and places the bid, retrying lost writes
	PlaceBid(ctx context.Context, req BidRequest) (*domain.Auction, error)

	// BuyNow rate limits, checks freshness and buys the territory, retrying lost writes
	BuyNow(ctx context.Context, req BuyNowRequest) (*domain.Territory, error)
}

type guard struct {
	engine  auction.Engine
	limiter ratelimit.Limiter
	cfg     Config
}

// NewGuard creates a new admission guard in front of the engine
func NewGuard(engine auction.Engine, limiter ratelimit.Limiter, cfg Config) Guard {
	if cfg.MaxConflictRetries <= 0 {
		cfg.MaxConflictRetries = defaultMaxConflictRetries
	}
	return &guard{
		engine:  engine,
		limiter: limiter,
		cfg:     cfg,
	}
}

// BidKey is the rate limit key of a bidder for an auction type
func BidKey(bidderID string, auctionType domain.AuctionType) string {
	return fmt.Sprintf("bid:%s:%s", bidderID, auctionType)
}

// BuyNowKey is the rate limit key of a buyer
func BuyNowKey(buyerID string) string {
	return fmt.Sprintf("buy_now:%s", buyerID)
}

func (g *guard) PlaceBid(ctx context.Context, req BidRequest) (*domain.Auction, error) {
	if req.BidderID == "" {
		return nil, domain.NewInvalidRequest("bidder is required")
	}

	// Authoritative read; the client's view of minNextBid is never trusted
	current, err := g.engine.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	if err := g.admit(ctx, BidKey(req.BidderID, current.Type), g.cfg.BidRule); err != nil {
		return nil, err
	}

	if req.ObservedVersion != nil && *req.ObservedVersion != current.Version {
		return nil, domain.NewStaleState(current.Version, current.MinNextBid)
	}

	var placed *domain.Auction
	operation := func() error {
		var err error
		placed, err = g.engine.PlaceBid(ctx, req.AuctionID, req.BidderID, req.Amount)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return backoff.Permanent(err)
		}

		// Lost the race: re-read and decide whether the same amount can still win
		refreshed, rerr := g.engine.GetAuction(ctx, req.AuctionID)
		if rerr != nil {
			return backoff.Permanent(rerr)
		}
		current = refreshed
		if current.Status != domain.AuctionStatusActive {
			return backoff.Permanent(domain.NewAuctionNotActive(current.Status))
		}
		if req.Amount < current.MinNextBid {
			return backoff.Permanent(domain.NewTooLow(current.MinNextBid, current.Version))
		}

		logger.DebugCtx(ctx, "Bid lost a write race, retrying",
			zap.String("auctionID", req.AuctionID),
			zap.String("bidderID", req.BidderID),
			zap.Int64("version", current.Version),
		)
		return err
	}

	if err := g.retry(ctx, operation); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewStaleState(current.Version, current.MinNextBid)
		}
		return nil, err
	}

	return placed, nil
}

func (g *guard) BuyNow(ctx context.Context, req BuyNowRequest) (*domain.Territory, error) {
	if req.BuyerID == "" {
		return nil, domain.NewInvalidRequest("buyer is required")
	}

	if err := g.admit(ctx, BuyNowKey(req.BuyerID), g.cfg.BuyNowRule); err != nil {
		return nil, err
	}

	quote, err := g.engine.QuoteBuyNow(ctx, req.TerritoryID)
	if err != nil {
		return nil, err
	}
	if req.ObservedVersion != nil && *req.ObservedVersion != quote.TerritoryVersion {
		return nil, domain.NewStalePrice(quote.TerritoryVersion, quote.Price)
	}
	if req.MaxPrice != nil && quote.Price > *req.MaxPrice {
		return nil, domain.NewStalePrice(quote.TerritoryVersion, quote.Price)
	}

	var bought *domain.Territory
	operation := func() error {
		var err error
		bought, err = g.engine.BuyNow(ctx, req.TerritoryID, req.BuyerID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return backoff.Permanent(err)
		}

		refreshed, rerr := g.engine.QuoteBuyNow(ctx, req.TerritoryID)
		if rerr != nil {
			return backoff.Permanent(rerr)
		}
		quote = refreshed
		if req.MaxPrice != nil && quote.Price > *req.MaxPrice {
			return backoff.Permanent(domain.NewStalePrice(quote.TerritoryVersion, quote.Price))
		}
		return err
	}

	if err := g.retry(ctx, operation); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewStalePrice(quote.TerritoryVersion, quote.Price)
		}
		return nil, err
	}

	return bought, nil
}

// admit consumes a rate limit token. A limiter failure lets the request through.
func (g *guard) admit(ctx context.Context, key string, rule ratelimit.Rule) error {
	if !rule.Valid() {
		return nil
	}

	decision, err := g.limiter.Allow(ctx, key, rule)
	if err != nil {
		logger.WarnCtx(ctx, "Rate limiter unavailable, admitting request", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !decision.Allowed {
		return domain.NewRateLimited(decision.RetryAfter)
	}
	return nil
}

func (g *guard) retry(ctx context.Context, operation backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0

	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.cfg.MaxConflictRetries)), ctx))
}
