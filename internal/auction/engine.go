package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
	"github.com/feral-file/ff-sovereignty/internal/store"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
	"github.com/feral-file/ff-sovereignty/internal/wallet"
)

// Actor identifies the caller of a privileged operation
type Actor struct {
	UserID string
	Admin  bool
}

// CreateAuctionOptions holds the optional parameters of a new auction
type CreateAuctionOptions struct {
	Type domain.AuctionType
	// ProtectionDays granted to the winner; nil grants lifetime protection
	ProtectionDays *int
	// StartingBid overrides basePrice + 1
	StartingBid *int64
	// Duration overrides the policy default, clamped to the policy bounds
	Duration *time.Duration
}

// Quote is the instant purchase price of a territory at read time
type Quote struct {
	TerritoryID      string
	Price            int64
	Available        bool
	ProtectedUntil   *time.Time
	AuctionID        *string
	TerritoryVersion int64
	AuctionVersion   *int64
}

// Engine defines the auction state machine over the ownership store
//
//go:generate mockgen -source=engine.go -destination=../mocks/engine.go -package=mocks -mock_names=Engine=MockEngine
type Engine interface {
	// GetTerritory retrieves a territory by ID
	GetTerritory(ctx context.Context, id string) (*domain.Territory, error)

	// ListTerritories lists territories matching the filter with a total count
	ListTerritories(ctx context.Context, filter store.TerritoryQueryFilter) ([]domain.Territory, uint64, error)

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, id string) (*domain.Auction, error)

	// ListBids lists the bids of an auction, newest first
	ListBids(ctx context.Context, auctionID string, limit int, offset uint64) ([]domain.Bid, uint64, error)

	// GetChanges retrieves committed changes after a cursor
	GetChanges(ctx context.Context, filter store.ChangesQueryFilter) ([]schema.ChangesJournal, error)

	// CreateAuction opens an auction on a territory
	CreateAuction(ctx context.Context, territoryID string, actor Actor, opts CreateAuctionOptions) (*domain.Auction, error)

	// PlaceBid admits a bid against the authoritative minimum next bid
	PlaceBid(ctx context.Context, auctionID string, bidderID string, amount int64) (*domain.Auction, error)

	// EndAuction settles an auction; force ends it before its end time
	EndAuction(ctx context.Context, auctionID string, force bool) (*domain.Auction, error)

	// SettleExpired ends an auction past its end time and reports whether this call committed the close
	SettleExpired(ctx context.Context, auctionID string) (*domain.Auction, bool, error)

	// CancelAuction voids an active auction and records the refund of the leading bid
	CancelAuction(ctx context.Context, auctionID string, actor Actor, reason string) (*domain.Auction, error)

	// QuoteBuyNow returns the instant purchase price of a territory
	QuoteBuyNow(ctx context.Context, territoryID string) (*Quote, error)

	// BuyNow purchases a territory at its buy-now price, preempting any active auction
	BuyNow(ctx context.Context, territoryID string, buyerID string) (*domain.Territory, error)
}

type engine struct {
	store       store.Store
	wallet      wallet.Wallet
	broadcaster reconcile.Broadcaster
	clock       adapter.Clock
	policy      Policy
}

// NewEngine creates a new auction engine
func NewEngine(st store.Store, w wallet.Wallet, broadcaster reconcile.Broadcaster, clock adapter.Clock, policy Policy) Engine {
	if policy.MaxSettleAttempts <= 0 {
		policy.MaxSettleAttempts = DefaultPolicy().MaxSettleAttempts
	}
	return &engine{
		store:       st,
		wallet:      w,
		broadcaster: broadcaster,
		clock:       clock,
		policy:      policy,
	}
}

func (e *engine) GetTerritory(ctx context.Context, id string) (*domain.Territory, error) {
	return e.loadTerritory(ctx, id)
}

func (e *engine) ListTerritories(ctx context.Context, filter store.TerritoryQueryFilter) ([]domain.Territory, uint64, error) {
	if filter.Sovereignty != nil && !domain.IsValidSovereignty(*filter.Sovereignty) {
		return nil, 0, domain.NewInvalidRequest(fmt.Sprintf("invalid sovereignty: %s", *filter.Sovereignty))
	}

	territories, total, err := e.store.ListTerritories(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list territories: %w", err)
	}
	return territories, total, nil
}

func (e *engine) GetAuction(ctx context.Context, id string) (*domain.Auction, error) {
	return e.loadAuction(ctx, id)
}

func (e *engine) ListBids(ctx context.Context, auctionID string, limit int, offset uint64) ([]domain.Bid, uint64, error) {
	if _, err := e.loadAuction(ctx, auctionID); err != nil {
		return nil, 0, err
	}

	bids, total, err := e.store.ListBids(ctx, auctionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, total, nil
}

func (e *engine) GetChanges(ctx context.Context, filter store.ChangesQueryFilter) ([]schema.ChangesJournal, error) {
	changes, err := e.store.GetChanges(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}
	return changes, nil
}

func (e *engine) CreateAuction(ctx context.Context, territoryID string, actor Actor, opts CreateAuctionOptions) (*domain.Auction, error) {
	if actor.UserID == "" {
		return nil, domain.NewInvalidRequest("requestor is required")
	}
	auctionType := opts.Type
	if auctionType == "" {
		auctionType = domain.AuctionTypeStandard
	}
	if !domain.IsValidAuctionType(auctionType) {
		return nil, domain.NewInvalidRequest(fmt.Sprintf("invalid auction type: %s", auctionType))
	}
	if opts.ProtectionDays != nil && *opts.ProtectionDays < 0 {
		return nil, domain.NewInvalidRequest("protection days must not be negative")
	}
	if opts.StartingBid != nil && *opts.StartingBid <= 0 {
		return nil, domain.NewInvalidRequest("starting bid must be positive")
	}
	if opts.StartingBid != nil && *opts.StartingBid > domain.MaxBid(e.policy.Pricing.Increment) {
		return nil, domain.NewInvalidRequest(fmt.Sprintf("starting bid must not exceed %d", domain.MaxBid(e.policy.Pricing.Increment)))
	}

	for attempt := 0; attempt < e.policy.MaxSettleAttempts; attempt++ {
		territory, err := e.loadTerritory(ctx, territoryID)
		if err != nil {
			return nil, err
		}
		now := e.clock.Now()

		if territory.CurrentAuctionID != nil {
			current, err := e.loadAuction(ctx, *territory.CurrentAuctionID)
			if err != nil {
				return nil, err
			}
			if !current.IsExpiredAt(now) {
				return nil, domain.NewAlreadyActive(territoryID)
			}
			// Expired but never settled: settle it, then open against the new territory version
			if _, _, err := e.settle(ctx, current); err != nil {
				return nil, err
			}
			continue
		}

		if auctionType == domain.AuctionTypeProtectionExtension && !territory.IsRuledBy(actor.UserID) {
			return nil, domain.NewForbidden("only the ruler can open a protection extension auction")
		}

		startingBid := domain.DefaultStartingBid(territory.BasePrice)
		if opts.StartingBid != nil {
			startingBid = *opts.StartingBid
		}
		increment := e.policy.Pricing.Increment

		created, opened, err := e.store.CreateAuction(ctx, store.CreateAuctionInput{
			Auction: domain.Auction{
				ID:             uuid.NewString(),
				TerritoryID:    territory.ID,
				Type:           auctionType,
				Status:         domain.AuctionStatusActive,
				StartingBid:    startingBid,
				Increment:      increment,
				MinNextBid:     domain.MinNextBid(startingBid, 0, increment, false),
				EndTime:        now.Add(e.policy.Duration(opts.Duration)),
				ProtectionDays: opts.ProtectionDays,
				CreatedBy:      actor.UserID,
				Version:        1,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
			ExpectedTerritoryVersion: territory.Version,
		})
		switch {
		case errors.Is(err, domain.ErrAlreadyActive):
			return nil, domain.NewAlreadyActive(territoryID)
		case errors.Is(err, domain.ErrConflict):
			continue
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NewNotFound("territory", territoryID)
		case err != nil:
			return nil, fmt.Errorf("failed to create auction: %w", err)
		}

		logger.InfoCtx(ctx, "Auction created",
			zap.String("auctionID", created.ID),
			zap.String("territoryID", created.TerritoryID),
			zap.String("type", string(created.Type)),
			zap.Int64("startingBid", created.StartingBid),
			zap.Time("endTime", created.EndTime),
		)

		e.broadcaster.Publish(ctx,
			reconcile.AuctionUpdated{Auction: *created},
			reconcile.NewTerritoryDelta(territory, *opened, reconcile.OwnershipCauseAuctionOpened, &created.ID),
		)
		return created, nil
	}

	return nil, fmt.Errorf("failed to create auction for territory %s: %w", territoryID, domain.ErrConflict)
}

func (e *engine) PlaceBid(ctx context.Context, auctionID string, bidderID string, amount int64) (*domain.Auction, error) {
	if bidderID == "" {
		return nil, domain.NewInvalidRequest("bidder is required")
	}
	if amount <= 0 {
		return nil, domain.NewInvalidRequest("bid amount must be positive")
	}

	auction, err := e.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()

	if auction.IsExpiredAt(now) {
		settled, _, err := e.settle(ctx, auction)
		if err != nil {
			return nil, err
		}
		return nil, domain.NewAuctionNotActive(settled.Status)
	}
	if auction.Status != domain.AuctionStatusActive {
		return nil, domain.NewAuctionNotActive(auction.Status)
	}
	// Past this amount the next minimum bid would not fit in an int64
	if amount > domain.MaxBid(auction.Increment) {
		return nil, domain.NewInvalidRequest(fmt.Sprintf("bid amount must not exceed %d", domain.MaxBid(auction.Increment)))
	}
	if amount < auction.MinNextBid {
		return nil, domain.NewTooLow(auction.MinNextBid, auction.Version)
	}

	bidID := uuid.NewString()
	if err := e.escrow(ctx, bidderID, amount, wallet.DebitReference(bidID)); err != nil {
		return nil, err
	}

	updated, bid, err := e.store.RecordBid(ctx, store.RecordBidInput{
		AuctionID:       auction.ID,
		BidID:           bidID,
		BidderID:        bidderID,
		Amount:          amount,
		ExpectedVersion: auction.Version,
		AcceptedAt:      now,
		Refund:          e.pendingRefund(auction, domain.RefundReasonOutbid, now),
	})
	if err != nil {
		// Nothing was committed; give the escrow back before reporting
		e.release(ctx, bidderID, amount, wallet.RefundReference(bidID), &auction.ID)
		switch {
		case errors.Is(err, domain.ErrConflict):
			return nil, fmt.Errorf("failed to record bid on auction %s: %w", auctionID, err)
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NewNotFound("auction", auctionID)
		default:
			return nil, fmt.Errorf("failed to record bid: %w", err)
		}
	}

	logger.InfoCtx(ctx, "Bid accepted",
		zap.String("auctionID", updated.ID),
		zap.String("bidderID", bidderID),
		zap.Int64("amount", amount),
		zap.Int64("minNextBid", updated.MinNextBid),
		zap.Int64("version", updated.Version),
	)

	e.broadcaster.Publish(ctx, reconcile.AuctionUpdated{Auction: *updated, Bid: bid})
	return updated, nil
}

func (e *engine) EndAuction(ctx context.Context, auctionID string, force bool) (*domain.Auction, error) {
	auction, err := e.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.Status.IsTerminal() {
		return auction, nil
	}
	if !force && auction.IsOpenAt(e.clock.Now()) {
		return nil, domain.NewForbidden(fmt.Sprintf("auction %s has not reached its end time", auctionID))
	}

	settled, _, err := e.settle(ctx, auction)
	return settled, err
}

func (e *engine) SettleExpired(ctx context.Context, auctionID string) (*domain.Auction, bool, error) {
	auction, err := e.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, false, err
	}
	if auction.Status.IsTerminal() {
		return auction, false, nil
	}
	if !auction.IsExpiredAt(e.clock.Now()) {
		return nil, false, domain.NewForbidden(fmt.Sprintf("auction %s has not reached its end time", auctionID))
	}

	return e.settle(ctx, auction)
}

func (e *engine) CancelAuction(ctx context.Context, auctionID string, actor Actor, reason string) (*domain.Auction, error) {
	current, err := e.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < e.policy.MaxSettleAttempts; attempt++ {
		switch current.Status {
		case domain.AuctionStatusCancelled:
			return current, nil
		case domain.AuctionStatusEnded:
			return nil, domain.NewAuctionNotActive(current.Status)
		}

		now := e.clock.Now()
		if current.IsExpiredAt(now) {
			settled, _, err := e.settle(ctx, current)
			if err != nil {
				return nil, err
			}
			return nil, domain.NewAuctionNotActive(settled.Status)
		}
		if !actor.Admin {
			if current.CreatedBy != actor.UserID {
				return nil, domain.NewForbidden("only the creator or an admin can cancel an auction")
			}
			if current.HasBids() {
				return nil, domain.NewForbidden("an auction with bids can only be cancelled by an admin")
			}
		}

		var cancelReason *string
		if reason != "" {
			cancelReason = &reason
		}
		closed, territory, err := e.store.CloseAuction(ctx, store.CloseAuctionInput{
			AuctionID:       current.ID,
			ExpectedVersion: current.Version,
			Status:          domain.AuctionStatusCancelled,
			Reason:          cancelReason,
			Refund:          e.pendingRefund(current, domain.RefundReasonCancelled, now),
			Now:             now,
		})
		if errors.Is(err, domain.ErrConflict) {
			if current, err = e.loadAuction(ctx, auctionID); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to cancel auction: %w", err)
		}

		logger.InfoCtx(ctx, "Auction cancelled",
			zap.String("auctionID", closed.ID),
			zap.String("territoryID", closed.TerritoryID),
			zap.String("reason", reason),
			zap.String("actor", actor.UserID),
		)

		e.broadcaster.Publish(ctx, e.closingDeltas(*closed, nil, *territory, reconcile.OwnershipCauseReleased)...)
		return closed, nil
	}

	return nil, fmt.Errorf("failed to cancel auction %s: %w", auctionID, domain.ErrConflict)
}

func (e *engine) loadTerritory(ctx context.Context, id string) (*domain.Territory, error) {
	territory, err := e.store.GetTerritory(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFound("territory", id)
		}
		return nil, fmt.Errorf("failed to get territory: %w", err)
	}
	return territory, nil
}

func (e *engine) loadAuction(ctx context.Context, id string) (*domain.Auction, error) {
	auction, err := e.store.GetAuction(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFound("auction", id)
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return auction, nil
}

// closingDeltas builds the deltas of an auction close. The territory delta is
// skipped when the close left the territory untouched.
func (e *engine) closingDeltas(closed domain.Auction, prev *domain.Territory, territory domain.Territory, cause reconcile.OwnershipCause) []reconcile.Delta {
	deltas := []reconcile.Delta{reconcile.AuctionUpdated{Auction: closed}}
	if prev != nil && prev.Version == territory.Version {
		return deltas
	}
	return append(deltas, reconcile.NewTerritoryDelta(prev, territory, cause, &closed.ID))
}
