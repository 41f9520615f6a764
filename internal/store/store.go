package store

import (
	"context"
	"time"

	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

// SeedTerritoryInput describes a catalogue entry to insert
type SeedTerritoryInput struct {
	ID        string
	Name      string
	BasePrice int64
}

// TerritoryQueryFilter filters territory listings
type TerritoryQueryFilter struct {
	RulerID     *string
	Sovereignty *domain.Sovereignty
	Limit       int
	Offset      uint64
}

// TransferOwnershipInput describes a versioned conquest of a territory
type TransferOwnershipInput struct {
	TerritoryID     string
	NewRulerID      string
	SettlementPrice int64
	Protection      domain.ProtectionGrant
	ExpectedVersion int64
	Now             time.Time
}

// ExpireProtectionInput describes a versioned protection expiry
type ExpireProtectionInput struct {
	TerritoryID     string
	ExpectedVersion int64
	Now             time.Time
}

// CreateAuctionInput describes a new auction and the territory version it was opened against
type CreateAuctionInput struct {
	Auction                  domain.Auction
	ExpectedTerritoryVersion int64
}

// RecordBidInput describes an admitted bid applied with a version check on the auction
type RecordBidInput struct {
	AuctionID       string
	BidID           string
	BidderID        string
	Amount          int64
	ExpectedVersion int64
	AcceptedAt      time.Time
	// Refund releases the escrow of the outbid leader; it is recorded with the bid
	Refund *domain.Refund
}

// AuctionTransfer describes the ownership transfer applied when an auction closes
type AuctionTransfer struct {
	NewRulerID      string
	SettlementPrice int64
	Protection      domain.ProtectionGrant
}

// CloseAuctionInput describes moving an active auction to a terminal status
type CloseAuctionInput struct {
	AuctionID       string
	ExpectedVersion int64
	Status          domain.AuctionStatus
	Reason          *string
	// Transfer is applied to the territory in the same transaction; nil releases it unchanged
	Transfer *AuctionTransfer
	// Refund releases the escrow of a leader that did not win; it is recorded with the close
	Refund *domain.Refund
	Now    time.Time
}

// ClaimRefundsInput describes a batch of due refunds leased to one sweeper
type ClaimRefundsInput struct {
	Now time.Time
	// Lease pushes the next attempt forward so concurrent sweepers skip the claimed refunds
	Lease time.Duration
	Limit int
}

// DeferRefundInput records a failed credit attempt
type DeferRefundInput struct {
	Reference     string
	Cause         string
	NextAttemptAt time.Time
}

// ChangesQueryFilter filters the changes journal
type ChangesQueryFilter struct {
	SubjectType *schema.SubjectType
	SubjectID   *string
	Since       uint64
	Limit       int
}

// Store defines the interface for the authoritative sovereignty and auction records.
// Every write is a compare-and-set on the entity version; a lost race returns domain.ErrConflict.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetTerritory retrieves a territory by ID
	GetTerritory(ctx context.Context, id string) (*domain.Territory, error)
	// ListTerritories lists territories matching the filter with a total count
	ListTerritories(ctx context.Context, filter TerritoryQueryFilter) ([]domain.Territory, uint64, error)
	// SeedTerritories inserts catalogue entries that do not exist yet and returns how many were inserted
	SeedTerritories(ctx context.Context, inputs []SeedTerritoryInput) (int, error)
	// TransferOwnership atomically hands the territory to a new ruler if the version still matches
	TransferOwnership(ctx context.Context, input TransferOwnershipInput) (*domain.Territory, error)
	// ExpireProtection demotes a lapsed protection if the version still matches
	ExpireProtection(ctx context.Context, input ExpireProtectionInput) (*domain.Territory, error)
	// ListExpiredProtections lists protected territories whose deadline has passed
	ListExpiredProtections(ctx context.Context, now time.Time, limit int) ([]domain.Territory, error)

	// CreateAuction opens an auction and marks the territory in one transaction
	CreateAuction(ctx context.Context, input CreateAuctionInput) (*domain.Auction, *domain.Territory, error)
	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, id string) (*domain.Auction, error)
	// GetActiveAuctionByTerritory retrieves the active auction of a territory
	GetActiveAuctionByTerritory(ctx context.Context, territoryID string) (*domain.Auction, error)
	// ListExpiredAuctions lists active auctions whose end time has passed
	ListExpiredAuctions(ctx context.Context, now time.Time, limit int) ([]domain.Auction, error)
	// RecordBid applies an admitted bid if the auction version still matches
	RecordBid(ctx context.Context, input RecordBidInput) (*domain.Auction, *domain.Bid, error)
	// CloseAuction ends or cancels an auction and transfers or releases the territory in one transaction
	CloseAuction(ctx context.Context, input CloseAuctionInput) (*domain.Auction, *domain.Territory, error)
	// ListBids lists the bids of an auction, newest first, with a total count
	ListBids(ctx context.Context, auctionID string, limit int, offset uint64) ([]domain.Bid, uint64, error)

	// EnqueueRefund records a refund outside of an auction write; a known reference is left untouched
	EnqueueRefund(ctx context.Context, refund domain.Refund) error
	// ClaimDueRefunds leases unsettled refunds whose next attempt is due, oldest first
	ClaimDueRefunds(ctx context.Context, input ClaimRefundsInput) ([]domain.Refund, error)
	// SettleRefund marks a refund as credited; settling twice is a no-op
	SettleRefund(ctx context.Context, reference string, now time.Time) error
	// DeferRefund records a failed credit attempt and schedules the next one
	DeferRefund(ctx context.Context, input DeferRefundInput) (*domain.Refund, error)

	// GetChanges retrieves journal entries after the given cursor
	GetChanges(ctx context.Context, filter ChangesQueryFilter) ([]schema.ChangesJournal, error)
}
