package auction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
	"github.com/feral-file/ff-sovereignty/internal/store"
	"github.com/feral-file/ff-sovereignty/internal/wallet"
)

func (e *engine) QuoteBuyNow(ctx context.Context, territoryID string) (*Quote, error) {
	territory, err := e.loadTerritory(ctx, territoryID)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()

	quote := &Quote{
		TerritoryID:      territory.ID,
		Available:        true,
		TerritoryVersion: territory.Version,
	}
	if territory.IsProtectedAt(now) {
		quote.Available = false
		quote.ProtectedUntil = territory.ProtectionEndsAt
	}

	var active *domain.Auction
	if territory.CurrentAuctionID != nil {
		auction, err := e.loadAuction(ctx, *territory.CurrentAuctionID)
		if err != nil {
			return nil, err
		}
		quote.AuctionID = &auction.ID
		quote.AuctionVersion = &auction.Version
		if auction.IsExpiredAt(now) {
			// The price moves once the pending settlement commits
			quote.Available = false
		} else if auction.Status == domain.AuctionStatusActive {
			active = auction
		}
	}

	quote.Price = e.policy.Pricing.BuyNowPrice(territory.BasePrice, active)
	return quote, nil
}

func (e *engine) BuyNow(ctx context.Context, territoryID string, buyerID string) (*domain.Territory, error) {
	if buyerID == "" {
		return nil, domain.NewInvalidRequest("buyer is required")
	}

	for attempt := 0; attempt < e.policy.MaxSettleAttempts; attempt++ {
		territory, err := e.loadTerritory(ctx, territoryID)
		if err != nil {
			return nil, err
		}
		now := e.clock.Now()

		if territory.IsProtectedAt(now) {
			return nil, domain.NewProtected(*territory.ProtectionEndsAt)
		}
		if territory.IsRuledBy(buyerID) {
			return nil, domain.NewInvalidRequest("buyer already rules the territory")
		}

		var active *domain.Auction
		if territory.CurrentAuctionID != nil {
			auction, err := e.loadAuction(ctx, *territory.CurrentAuctionID)
			if err != nil {
				return nil, err
			}
			if auction.IsExpiredAt(now) {
				if _, _, err := e.settle(ctx, auction); err != nil {
					return nil, err
				}
				continue
			}
			if auction.Status == domain.AuctionStatusActive {
				active = auction
			}
		}

		price := e.policy.Pricing.BuyNowPrice(territory.BasePrice, active)
		purchaseID := uuid.NewString()
		if err := e.escrow(ctx, buyerID, price, wallet.DebitReference(purchaseID)); err != nil {
			return nil, err
		}

		bought, err := e.commitPurchase(ctx, territory, active, buyerID, price)
		if err != nil {
			e.release(ctx, buyerID, price, wallet.RefundReference(purchaseID), nil)
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, err
		}

		logger.InfoCtx(ctx, "Territory bought",
			zap.String("territoryID", bought.ID),
			zap.String("buyerID", buyerID),
			zap.Int64("price", price),
			zap.Bool("preemptedAuction", active != nil),
		)
		return bought, nil
	}

	return nil, fmt.Errorf("failed to buy territory %s: %w", territoryID, domain.ErrConflict)
}

// commitPurchase transfers the territory to the buyer. An active auction is
// cancelled in the same transaction so that it cannot also settle.
func (e *engine) commitPurchase(ctx context.Context, territory *domain.Territory, active *domain.Auction, buyerID string, price int64) (*domain.Territory, error) {
	grant := e.policy.Pricing.Grant(&e.policy.BuyNowProtectionDays, false)
	now := e.clock.Now()

	if active == nil {
		bought, err := e.store.TransferOwnership(ctx, store.TransferOwnershipInput{
			TerritoryID:     territory.ID,
			NewRulerID:      buyerID,
			SettlementPrice: price,
			Protection:      grant,
			ExpectedVersion: territory.Version,
			Now:             now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to transfer territory %s: %w", territory.ID, err)
		}

		e.broadcaster.Publish(ctx, reconcile.NewTerritoryDelta(territory, *bought, reconcile.OwnershipCauseConquest, nil))
		return bought, nil
	}

	reason := domain.CANCEL_REASON_BUY_NOW
	closed, bought, err := e.store.CloseAuction(ctx, store.CloseAuctionInput{
		AuctionID:       active.ID,
		ExpectedVersion: active.Version,
		Status:          domain.AuctionStatusCancelled,
		Reason:          &reason,
		Transfer: &store.AuctionTransfer{
			NewRulerID:      buyerID,
			SettlementPrice: price,
			Protection:      grant,
		},
		Refund: e.pendingRefund(active, domain.RefundReasonPreempted, now),
		Now:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to preempt auction %s: %w", active.ID, err)
	}

	e.broadcaster.Publish(ctx, e.closingDeltas(*closed, territory, *bought, reconcile.OwnershipCauseConquest)...)
	return bought, nil
}
