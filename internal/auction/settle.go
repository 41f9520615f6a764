package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
	"github.com/feral-file/ff-sovereignty/internal/store"
	"github.com/feral-file/ff-sovereignty/internal/wallet"
)

// settle ends an active auction. The leader, if any, takes the territory at the
// winning bid; otherwise the territory is released unchanged. A lost race re-reads
// the auction and returns it once another writer has settled it. The flag reports
// whether this call committed the close.
func (e *engine) settle(ctx context.Context, auction *domain.Auction) (*domain.Auction, bool, error) {
	current := auction
	for attempt := 0; attempt < e.policy.MaxSettleAttempts; attempt++ {
		if current.Status.IsTerminal() {
			return current, false, nil
		}

		prev, err := e.loadTerritory(ctx, current.TerritoryID)
		if err != nil {
			return nil, false, err
		}

		input := store.CloseAuctionInput{
			AuctionID:       current.ID,
			ExpectedVersion: current.Version,
			Status:          domain.AuctionStatusEnded,
			Now:             e.clock.Now(),
		}
		cause := reconcile.OwnershipCauseReleased
		if current.HighestBidderID != nil {
			input.Transfer = &store.AuctionTransfer{
				NewRulerID:      *current.HighestBidderID,
				SettlementPrice: current.CurrentBid,
				Protection:      e.policy.Pricing.Grant(current.ProtectionDays, current.Type == domain.AuctionTypeProtectionExtension),
			}
			cause = reconcile.OwnershipCauseConquest
		}

		closed, territory, err := e.store.CloseAuction(ctx, input)
		if errors.Is(err, domain.ErrConflict) {
			logger.DebugCtx(ctx, "Auction settlement lost a race, re-reading",
				zap.String("auctionID", current.ID),
				zap.Int64("version", current.Version),
			)
			if current, err = e.loadAuction(ctx, current.ID); err != nil {
				return nil, false, err
			}
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to end auction: %w", err)
		}

		fields := []zap.Field{
			zap.String("auctionID", closed.ID),
			zap.String("territoryID", closed.TerritoryID),
			zap.Int64("bidCount", closed.BidCount),
		}
		if closed.HighestBidderID != nil {
			fields = append(fields, zap.String("winnerID", *closed.HighestBidderID), zap.Int64("price", closed.CurrentBid))
		}
		logger.InfoCtx(ctx, "Auction ended", fields...)

		e.broadcaster.Publish(ctx, e.closingDeltas(*closed, prev, *territory, cause)...)
		return closed, true, nil
	}

	return nil, false, fmt.Errorf("failed to end auction %s: %w", auction.ID, domain.ErrConflict)
}

// escrow checks the balance and debits the amount before a write is attempted
func (e *engine) escrow(ctx context.Context, userID string, amount int64, reference string) error {
	ctx, cancel := context.WithTimeout(ctx, e.policy.WalletTimeout)
	defer cancel()

	balance, err := e.wallet.GetBalance(ctx, userID)
	if err != nil {
		return walletError(err)
	}
	if balance < amount {
		return domain.NewInsufficientFunds(balance, amount)
	}
	if err := e.wallet.Debit(ctx, userID, amount, reference); err != nil {
		return walletError(err)
	}
	return nil
}

// release gives back an escrow whose write never committed. One credit is
// attempted inline; if the wallet cannot take it the refund is recorded for the
// refund sweeper, so the caller can report its own error right away.
func (e *engine) release(ctx context.Context, userID string, amount int64, reference string, auctionID *string) {
	ctx = context.WithoutCancel(ctx)

	callCtx, cancel := context.WithTimeout(ctx, e.policy.WalletTimeout)
	err := e.wallet.Credit(callCtx, userID, amount, reference)
	cancel()
	if err == nil {
		return
	}

	logger.WarnCtx(ctx, "Escrow release failed, deferring to the refund sweeper",
		zap.Error(err),
		zap.String("userID", userID),
		zap.String("reference", reference),
	)

	now := e.clock.Now()
	cause := err.Error()
	refund := domain.Refund{
		Reference:     reference,
		UserID:        userID,
		Amount:        amount,
		AuctionID:     auctionID,
		Reason:        domain.RefundReasonAborted,
		Attempts:      1,
		NextAttemptAt: now,
		LastError:     &cause,
		CreatedAt:     now,
	}
	if err := e.store.EnqueueRefund(ctx, refund); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("CRITICAL: escrow release was not recorded: %w", err),
			zap.String("userID", userID),
			zap.Int64("amount", amount),
			zap.String("reference", reference),
		)
	}
}

// pendingRefund is the refund owed to the leader of an auction at its current
// version, recorded in the same transaction as the write that displaces it
func (e *engine) pendingRefund(a *domain.Auction, reason domain.RefundReason, now time.Time) *domain.Refund {
	if a == nil || a.HighestBidderID == nil {
		return nil
	}
	auctionID := a.ID
	return &domain.Refund{
		Reference:     escrowReference(a),
		UserID:        *a.HighestBidderID,
		Amount:        a.CurrentBid,
		AuctionID:     &auctionID,
		Reason:        reason,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}

// escrowReference identifies the escrow of the leader of an auction at a given
// version. Every path that releases it (outbid, cancel, buy-now) derives the same
// reference so the wallet applies the refund once.
func escrowReference(a *domain.Auction) string {
	return wallet.RefundReference(fmt.Sprintf("%s:%d", a.ID, a.Version))
}

func walletError(err error) error {
	if _, ok := domain.AsRejection(err); ok {
		return err
	}
	return domain.NewExternalServiceError("wallet", err)
}
