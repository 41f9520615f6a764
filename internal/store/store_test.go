package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

// seedTerritory inserts a single unconquered territory and returns it
func seedTerritory(t *testing.T, s Store, id string, basePrice int64) *domain.Territory {
	ctx := context.Background()
	n, err := s.SeedTerritories(ctx, []SeedTerritoryInput{{ID: id, Name: "Territory " + id, BasePrice: basePrice}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	territory, err := s.GetTerritory(ctx, id)
	require.NoError(t, err)
	return territory
}

// buildTestAuction creates an active auction for a territory
func buildTestAuction(territoryID string, basePrice int64, endTime time.Time) domain.Auction {
	starting := domain.DefaultStartingBid(basePrice)
	return domain.Auction{
		ID:             uuid.NewString(),
		TerritoryID:    territoryID,
		Type:           domain.AuctionTypeStandard,
		Status:         domain.AuctionStatusActive,
		StartingBid:    starting,
		Increment:      1,
		MinNextBid:     starting,
		EndTime:        endTime,
		ProtectionDays: intPtr(7),
		CreatedBy:      "creator",
		Version:        1,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
}

// openTestAuction seeds a territory and opens an auction on it
func openTestAuction(t *testing.T, s Store, territoryID string) (*domain.Auction, *domain.Territory) {
	territory := seedTerritory(t, s, territoryID, 100)
	auction, updated, err := s.CreateAuction(context.Background(), CreateAuctionInput{
		Auction:                  buildTestAuction(territoryID, territory.BasePrice, testNow.Add(24*time.Hour)),
		ExpectedTerritoryVersion: territory.Version,
	})
	require.NoError(t, err)
	return auction, updated
}

func placeTestBid(t *testing.T, s Store, auction *domain.Auction, bidder string, amount int64) *domain.Auction {
	updated, _, err := s.RecordBid(context.Background(), RecordBidInput{
		AuctionID:       auction.ID,
		BidID:           uuid.NewString(),
		BidderID:        bidder,
		Amount:          amount,
		ExpectedVersion: auction.Version,
		AcceptedAt:      testNow.Add(time.Duration(amount) * time.Second),
	})
	require.NoError(t, err)
	return updated
}

// =============================================================================
// Territory tests
// =============================================================================

func testSeedAndGetTerritory(t *testing.T, s Store) {
	ctx := context.Background()

	n, err := s.SeedTerritories(ctx, []SeedTerritoryInput{
		{ID: "FR", Name: "France", BasePrice: 100},
		{ID: "JP", Name: "Japan", BasePrice: 250},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-seeding never overwrites
	n, err = s.SeedTerritories(ctx, []SeedTerritoryInput{
		{ID: "FR", Name: "Renamed", BasePrice: 1},
		{ID: "DE", Name: "Germany", BasePrice: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fr, err := s.GetTerritory(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, "France", fr.Name)
	assert.Equal(t, int64(100), fr.BasePrice)
	assert.Equal(t, domain.SovereigntyUnconquered, fr.Sovereignty)
	assert.Equal(t, int64(1), fr.Version)
	assert.Nil(t, fr.RulerID)

	_, err = s.GetTerritory(ctx, "XX")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err = s.SeedTerritories(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testListTerritories(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.SeedTerritories(ctx, []SeedTerritoryInput{
		{ID: "AA", BasePrice: 10},
		{ID: "BB", BasePrice: 10},
		{ID: "CC", BasePrice: 10},
	})
	require.NoError(t, err)

	bb, err := s.GetTerritory(ctx, "BB")
	require.NoError(t, err)
	_, err = s.TransferOwnership(ctx, TransferOwnershipInput{
		TerritoryID:     "BB",
		NewRulerID:      "alice",
		SettlementPrice: 20,
		Protection:      domain.DefaultPricing().Grant(intPtr(7), false),
		ExpectedVersion: bb.Version,
		Now:             testNow,
	})
	require.NoError(t, err)

	all, total, err := s.ListTerritories(ctx, TerritoryQueryFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, all, 2)
	assert.Equal(t, "AA", all[0].ID)
	assert.Equal(t, "BB", all[1].ID)

	rest, _, err := s.ListTerritories(ctx, TerritoryQueryFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "CC", rest[0].ID)

	ruler := "alice"
	ruled, total, err := s.ListTerritories(ctx, TerritoryQueryFilter{RulerID: &ruler, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, ruled, 1)
	assert.Equal(t, "BB", ruled[0].ID)

	unconquered := domain.SovereigntyUnconquered
	_, total, err = s.ListTerritories(ctx, TerritoryQueryFilter{Sovereignty: &unconquered, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
}

func testTransferOwnership(t *testing.T, s Store) {
	ctx := context.Background()
	territory := seedTerritory(t, s, "FR", 100)

	updated, err := s.TransferOwnership(ctx, TransferOwnershipInput{
		TerritoryID:     "FR",
		NewRulerID:      "alice",
		SettlementPrice: 140,
		Protection:      domain.DefaultPricing().Grant(intPtr(7), false),
		ExpectedVersion: territory.Version,
		Now:             testNow,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RulerID)
	assert.Equal(t, "alice", *updated.RulerID)
	assert.Equal(t, domain.SovereigntyProtected, updated.Sovereignty)
	assert.Equal(t, int64(140), updated.BasePrice)
	assert.Equal(t, territory.Version+1, updated.Version)
	require.NotNil(t, updated.ProtectionEndsAt)
	assert.True(t, testNow.AddDate(0, 0, 7).Equal(*updated.ProtectionEndsAt))

	stored, err := s.GetTerritory(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, updated.Version, stored.Version)
	assert.Equal(t, "alice", *stored.RulerID)
	assert.True(t, testNow.Equal(*stored.RulerSince))

	// Stale version
	_, err = s.TransferOwnership(ctx, TransferOwnershipInput{
		TerritoryID:     "FR",
		NewRulerID:      "bob",
		SettlementPrice: 200,
		Protection:      domain.DefaultPricing().Grant(nil, false),
		ExpectedVersion: territory.Version,
		Now:             testNow,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.TransferOwnership(ctx, TransferOwnershipInput{TerritoryID: "XX", NewRulerID: "bob", ExpectedVersion: 1, Now: testNow})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testTransferOwnershipStaleVersion(t *testing.T, s Store) {
	ctx := context.Background()
	territory := seedTerritory(t, s, "JP", 100)

	successes, conflicts := 0, 0
	for i := 0; i < 5; i++ {
		_, err := s.TransferOwnership(ctx, TransferOwnershipInput{
			TerritoryID:     "JP",
			NewRulerID:      uuid.NewString(),
			SettlementPrice: 100,
			Protection:      domain.DefaultPricing().Grant(nil, false),
			ExpectedVersion: territory.Version,
			Now:             testNow,
		})
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, conflicts)
}

func testExpireProtection(t *testing.T, s Store) {
	ctx := context.Background()
	territory := seedTerritory(t, s, "FR", 100)

	protected, err := s.TransferOwnership(ctx, TransferOwnershipInput{
		TerritoryID:     "FR",
		NewRulerID:      "alice",
		SettlementPrice: 100,
		Protection:      domain.DefaultPricing().Grant(intPtr(1), false),
		ExpectedVersion: territory.Version,
		Now:             testNow,
	})
	require.NoError(t, err)

	// Deadline still in the future
	_, err = s.ExpireProtection(ctx, ExpireProtectionInput{TerritoryID: "FR", ExpectedVersion: protected.Version, Now: testNow})
	assert.ErrorIs(t, err, domain.ErrNoOp)

	expiredAt := testNow.Add(25 * time.Hour)
	lapsed, err := s.ListExpiredProtections(ctx, expiredAt, 10)
	require.NoError(t, err)
	require.Len(t, lapsed, 1)
	assert.Equal(t, "FR", lapsed[0].ID)

	ruled, err := s.ExpireProtection(ctx, ExpireProtectionInput{TerritoryID: "FR", ExpectedVersion: protected.Version, Now: expiredAt})
	require.NoError(t, err)
	assert.Equal(t, domain.SovereigntyRuled, ruled.Sovereignty)
	assert.Equal(t, "alice", *ruled.RulerID)
	assert.Equal(t, protected.Version+1, ruled.Version)

	// Replaying with the old version conflicts, with the new version is a no-op
	_, err = s.ExpireProtection(ctx, ExpireProtectionInput{TerritoryID: "FR", ExpectedVersion: protected.Version, Now: expiredAt})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = s.ExpireProtection(ctx, ExpireProtectionInput{TerritoryID: "FR", ExpectedVersion: ruled.Version, Now: expiredAt})
	assert.ErrorIs(t, err, domain.ErrNoOp)

	lapsed, err = s.ListExpiredProtections(ctx, expiredAt, 10)
	require.NoError(t, err)
	assert.Empty(t, lapsed)
}

// =============================================================================
// Auction tests
// =============================================================================

func testCreateAuction(t *testing.T, s Store) {
	ctx := context.Background()
	auction, territory := openTestAuction(t, s, "FR")

	assert.Equal(t, domain.SovereigntyContested, territory.Sovereignty)
	require.NotNil(t, territory.CurrentAuctionID)
	assert.Equal(t, auction.ID, *territory.CurrentAuctionID)
	assert.Equal(t, int64(2), territory.Version)

	stored, err := s.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionStatusActive, stored.Status)
	assert.Equal(t, int64(101), stored.MinNextBid)
	assert.Equal(t, 7, *stored.ProtectionDays)

	active, err := s.GetActiveAuctionByTerritory(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, auction.ID, active.ID)

	// A second auction is rejected
	_, _, err = s.CreateAuction(ctx, CreateAuctionInput{
		Auction:                  buildTestAuction("FR", 100, testNow.Add(time.Hour)),
		ExpectedTerritoryVersion: territory.Version,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyActive)

	// Opening against a stale territory version conflicts
	other := seedTerritory(t, s, "JP", 100)
	_, _, err = s.CreateAuction(ctx, CreateAuctionInput{
		Auction:                  buildTestAuction("JP", 100, testNow.Add(time.Hour)),
		ExpectedTerritoryVersion: other.Version + 1,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.GetAuction(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetActiveAuctionByTerritory(ctx, "JP")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testRecordBid(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, "FR")

	first := placeTestBid(t, s, auction, "alice", 101)
	assert.Equal(t, int64(101), first.CurrentBid)
	assert.Equal(t, int64(102), first.MinNextBid)
	assert.Equal(t, "alice", *first.HighestBidderID)
	assert.Equal(t, int64(1), first.BidCount)

	second := placeTestBid(t, s, first, "bob", 102)
	assert.Equal(t, int64(103), second.MinNextBid)

	// A bid computed against the first snapshot loses
	_, _, err := s.RecordBid(ctx, RecordBidInput{
		AuctionID:       auction.ID,
		BidID:           uuid.NewString(),
		BidderID:        "carol",
		Amount:          102,
		ExpectedVersion: first.Version,
		AcceptedAt:      testNow,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	bids, total, err := s.ListBids(ctx, auction.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, bids, 2)
	assert.Equal(t, "bob", bids[0].BidderID)
	assert.Equal(t, int64(102), bids[0].Amount)
	assert.Equal(t, "alice", bids[1].BidderID)

	paged, _, err := s.ListBids(ctx, auction.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "alice", paged[0].BidderID)
}

func testCloseAuctionWithTransfer(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, "FR")
	auction = placeTestBid(t, s, auction, "alice", 101)
	auction = placeTestBid(t, s, auction, "bob", 102)

	endAt := testNow.Add(25 * time.Hour)
	ended, territory, err := s.CloseAuction(ctx, CloseAuctionInput{
		AuctionID:       auction.ID,
		ExpectedVersion: auction.Version,
		Status:          domain.AuctionStatusEnded,
		Transfer: &AuctionTransfer{
			NewRulerID:      "bob",
			SettlementPrice: 102,
			Protection:      domain.DefaultPricing().Grant(auction.ProtectionDays, false),
		},
		Now: endAt,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionStatusEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, "bob", *territory.RulerID)
	assert.Equal(t, domain.SovereigntyProtected, territory.Sovereignty)
	assert.Equal(t, int64(102), territory.BasePrice)
	assert.Nil(t, territory.CurrentAuctionID)
	assert.True(t, endAt.AddDate(0, 0, 7).Equal(*territory.ProtectionEndsAt))

	stored, err := s.GetTerritory(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, territory.Version, stored.Version)
	assert.Equal(t, "bob", *stored.RulerID)

	// Closing twice loses against the first close
	_, _, err = s.CloseAuction(ctx, CloseAuctionInput{
		AuctionID:       auction.ID,
		ExpectedVersion: auction.Version,
		Status:          domain.AuctionStatusEnded,
		Now:             endAt,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.GetActiveAuctionByTerritory(ctx, "FR")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testCloseAuctionRelease(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, "FR")

	reason := "owner withdrew"
	cancelled, territory, err := s.CloseAuction(ctx, CloseAuctionInput{
		AuctionID:       auction.ID,
		ExpectedVersion: auction.Version,
		Status:          domain.AuctionStatusCancelled,
		Reason:          &reason,
		Now:             testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionStatusCancelled, cancelled.Status)
	assert.Equal(t, reason, *cancelled.CancelReason)
	assert.Equal(t, domain.SovereigntyUnconquered, territory.Sovereignty)
	assert.Nil(t, territory.CurrentAuctionID)
	assert.Nil(t, territory.RulerID)

	// The territory can be auctioned again
	_, _, err = s.CreateAuction(ctx, CreateAuctionInput{
		Auction:                  buildTestAuction("FR", territory.BasePrice, testNow.Add(48*time.Hour)),
		ExpectedTerritoryVersion: territory.Version,
	})
	require.NoError(t, err)

	_, _, err = s.CloseAuction(ctx, CloseAuctionInput{AuctionID: auction.ID, Status: domain.AuctionStatusActive, Now: testNow})
	assert.Error(t, err)
}

func testListExpiredAuctions(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, "FR")

	expired, err := s.ListExpiredAuctions(ctx, testNow, 10)
	require.NoError(t, err)
	assert.Empty(t, expired)

	expired, err = s.ListExpiredAuctions(ctx, auction.EndTime, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, auction.ID, expired[0].ID)
}

func testGetChanges(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, "FR")
	auction = placeTestBid(t, s, auction, "alice", 101)
	_, _, err := s.CloseAuction(ctx, CloseAuctionInput{
		AuctionID:       auction.ID,
		ExpectedVersion: auction.Version,
		Status:          domain.AuctionStatusEnded,
		Transfer: &AuctionTransfer{
			NewRulerID:      "alice",
			SettlementPrice: 101,
			Protection:      domain.DefaultPricing().Grant(nil, false),
		},
		Now: auction.EndTime,
	})
	require.NoError(t, err)

	changes, err := s.GetChanges(ctx, ChangesQueryFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, changes, 4)

	kinds := make([]schema.ChangeKind, 0, len(changes))
	for i, c := range changes {
		if i > 0 {
			assert.Greater(t, c.Cursor, changes[i-1].Cursor)
		}
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []schema.ChangeKind{
		schema.ChangeKindAuctionOpened,
		schema.ChangeKindBidAccepted,
		schema.ChangeKindAuctionEnded,
		schema.ChangeKindOwnershipChanged,
	}, kinds)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(changes[3].Meta, &meta))
	assert.Equal(t, "alice", meta["ruler_id"])
	assert.Equal(t, auction.ID, meta["auction_id"])

	subjectType := schema.SubjectTypeTerritory
	subjectID := "FR"
	territoryChanges, err := s.GetChanges(ctx, ChangesQueryFilter{SubjectType: &subjectType, SubjectID: &subjectID, Limit: 100})
	require.NoError(t, err)
	require.Len(t, territoryChanges, 1)

	after, err := s.GetChanges(ctx, ChangesQueryFilter{Since: uint64(changes[1].Cursor), Limit: 1}) //nolint:gosec,G115
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, changes[2].Cursor, after[0].Cursor)
}

// =============================================================================
// Refund tests
// =============================================================================

func buildTestRefund(reference, userID string, amount int64, auctionID *string) domain.Refund {
	return domain.Refund{
		Reference:     reference,
		UserID:        userID,
		Amount:        amount,
		AuctionID:     auctionID,
		Reason:        domain.RefundReasonOutbid,
		NextAttemptAt: testNow,
		CreatedAt:     testNow,
	}
}

func testRecordBidRecordsRefund(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, "FR")
	auction = placeTestBid(t, s, auction, "alice", 101)

	refund := buildTestRefund("refund:"+auction.ID+":2", "alice", 101, &auction.ID)
	_, _, err := s.RecordBid(ctx, RecordBidInput{
		AuctionID:       auction.ID,
		BidID:           uuid.NewString(),
		BidderID:        "bob",
		Amount:          120,
		ExpectedVersion: auction.Version,
		AcceptedAt:      testNow,
		Refund:          &refund,
	})
	require.NoError(t, err)

	// A lost write records nothing
	lost := buildTestRefund("refund:lost", "carol", 130, &auction.ID)
	_, _, err = s.RecordBid(ctx, RecordBidInput{
		AuctionID:       auction.ID,
		BidID:           uuid.NewString(),
		BidderID:        "carol",
		Amount:          130,
		ExpectedVersion: auction.Version,
		AcceptedAt:      testNow,
		Refund:          &lost,
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	due, err := s.ClaimDueRefunds(ctx, ClaimRefundsInput{Now: testNow, Limit: 10})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, refund.Reference, due[0].Reference)
	assert.Equal(t, "alice", due[0].UserID)
	assert.Equal(t, int64(101), due[0].Amount)
	assert.Equal(t, domain.RefundReasonOutbid, due[0].Reason)
	require.NotNil(t, due[0].AuctionID)
	assert.Equal(t, auction.ID, *due[0].AuctionID)
}

func testCloseAuctionRecordsRefund(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, "FR")
	auction = placeTestBid(t, s, auction, "alice", 101)

	refund := buildTestRefund("refund:"+auction.ID+":2", "alice", 101, &auction.ID)
	refund.Reason = domain.RefundReasonCancelled
	_, _, err := s.CloseAuction(ctx, CloseAuctionInput{
		AuctionID:       auction.ID,
		ExpectedVersion: auction.Version,
		Status:          domain.AuctionStatusCancelled,
		Refund:          &refund,
		Now:             testNow,
	})
	require.NoError(t, err)

	due, err := s.ClaimDueRefunds(ctx, ClaimRefundsInput{Now: testNow, Limit: 10})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, domain.RefundReasonCancelled, due[0].Reason)
}

func testRefundLifecycle(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.EnqueueRefund(ctx, buildTestRefund("r1", "alice", 100, nil)))
	later := buildTestRefund("r2", "bob", 200, nil)
	later.NextAttemptAt = testNow.Add(time.Minute)
	require.NoError(t, s.EnqueueRefund(ctx, later))
	// A known reference keeps its first record
	require.NoError(t, s.EnqueueRefund(ctx, buildTestRefund("r1", "alice", 999, nil)))

	claimed, err := s.ClaimDueRefunds(ctx, ClaimRefundsInput{Now: testNow, Lease: 30 * time.Second, Limit: 10})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "r1", claimed[0].Reference)
	assert.Equal(t, int64(100), claimed[0].Amount)
	assert.True(t, claimed[0].NextAttemptAt.Equal(testNow.Add(30*time.Second)))

	t.Run("leased refunds are not claimed twice", func(t *testing.T) {
		again, err := s.ClaimDueRefunds(ctx, ClaimRefundsInput{Now: testNow.Add(10 * time.Second), Lease: 30 * time.Second, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("defer records the attempt", func(t *testing.T) {
		deferred, err := s.DeferRefund(ctx, DeferRefundInput{Reference: "r1", Cause: "wallet unavailable", NextAttemptAt: testNow.Add(2 * time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, 1, deferred.Attempts)
		require.NotNil(t, deferred.LastError)
		assert.Equal(t, "wallet unavailable", *deferred.LastError)

		due, err := s.ClaimDueRefunds(ctx, ClaimRefundsInput{Now: testNow.Add(time.Minute), Limit: 10})
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "r2", due[0].Reference)
	})

	t.Run("settle is idempotent and final", func(t *testing.T) {
		require.NoError(t, s.SettleRefund(ctx, "r1", testNow.Add(3*time.Minute)))
		require.NoError(t, s.SettleRefund(ctx, "r1", testNow.Add(4*time.Minute)))

		due, err := s.ClaimDueRefunds(ctx, ClaimRefundsInput{Now: testNow.Add(time.Hour), Limit: 10})
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "r2", due[0].Reference)

		_, err = s.DeferRefund(ctx, DeferRefundInput{Reference: "r1", Cause: "late", NextAttemptAt: testNow})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown references", func(t *testing.T) {
		assert.ErrorIs(t, s.SettleRefund(ctx, "missing", testNow), domain.ErrNotFound)
		_, err := s.DeferRefund(ctx, DeferRefundInput{Reference: "missing", NextAttemptAt: testNow})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// RunStoreTests runs all store tests against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"SeedAndGetTerritory", testSeedAndGetTerritory},
		{"ListTerritories", testListTerritories},
		{"TransferOwnership", testTransferOwnership},
		{"TransferOwnershipStaleVersion", testTransferOwnershipStaleVersion},
		{"ExpireProtection", testExpireProtection},
		{"CreateAuction", testCreateAuction},
		{"RecordBid", testRecordBid},
		{"CloseAuctionWithTransfer", testCloseAuctionWithTransfer},
		{"CloseAuctionRelease", testCloseAuctionRelease},
		{"ListExpiredAuctions", testListExpiredAuctions},
		{"GetChanges", testGetChanges},
		{"RecordBidRecordsRefund", testRecordBidRecordsRefund},
		{"CloseAuctionRecordsRefund", testCloseAuctionRecordsRefund},
		{"RefundLifecycle", testRefundLifecycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}

// =============================================================================
// Concurrent writers
// =============================================================================

// runConcurrently starts n writers at once and waits for all of them
func runConcurrently(n int, fn func(i int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			fn(i)
		}()
	}
	close(start)
	wg.Wait()
}

func testConcurrentTransferOwnership(t *testing.T, s Store) {
	ctx := context.Background()
	id := uuid.NewString()
	territory := seedTerritory(t, s, id, 100)

	const writers = 16
	var successes, conflicts atomic.Int32
	runConcurrently(writers, func(int) {
		_, err := s.TransferOwnership(ctx, TransferOwnershipInput{
			TerritoryID:     id,
			NewRulerID:      uuid.NewString(),
			SettlementPrice: 150,
			Protection:      domain.DefaultPricing().Grant(intPtr(7), false),
			ExpectedVersion: territory.Version,
			Now:             testNow,
		})
		switch {
		case err == nil:
			successes.Add(1)
		case errors.Is(err, domain.ErrConflict):
			conflicts.Add(1)
		default:
			t.Errorf("unexpected error: %v", err)
		}
	})

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())

	stored, err := s.GetTerritory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, territory.Version+1, stored.Version)
}

func testConcurrentCreateAuction(t *testing.T, s Store) {
	ctx := context.Background()
	id := uuid.NewString()
	territory := seedTerritory(t, s, id, 100)

	const writers = 8
	var successes, rejected atomic.Int32
	runConcurrently(writers, func(int) {
		_, _, err := s.CreateAuction(ctx, CreateAuctionInput{
			Auction:                  buildTestAuction(id, territory.BasePrice, testNow.Add(time.Hour)),
			ExpectedTerritoryVersion: territory.Version,
		})
		switch {
		case err == nil:
			successes.Add(1)
		case errors.Is(err, domain.ErrAlreadyActive), errors.Is(err, domain.ErrConflict):
			rejected.Add(1)
		default:
			t.Errorf("unexpected error: %v", err)
		}
	})

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(writers-1), rejected.Load())

	stored, err := s.GetTerritory(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentAuctionID)
	active, err := s.GetActiveAuctionByTerritory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, *stored.CurrentAuctionID, active.ID)
}

func testConcurrentRecordBid(t *testing.T, s Store) {
	ctx := context.Background()
	auction, _ := openTestAuction(t, s, uuid.NewString())

	const bidders = 16
	var successes atomic.Int32
	runConcurrently(bidders, func(int) {
		_, _, err := s.RecordBid(ctx, RecordBidInput{
			AuctionID:       auction.ID,
			BidID:           uuid.NewString(),
			BidderID:        uuid.NewString(),
			Amount:          auction.MinNextBid,
			ExpectedVersion: auction.Version,
			AcceptedAt:      testNow,
		})
		if err == nil {
			successes.Add(1)
		} else if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	assert.Equal(t, int32(1), successes.Load())

	stored, err := s.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.BidCount)
	assert.Equal(t, auction.MinNextBid+1, stored.MinNextBid)
}

func testConcurrentClaimDueRefunds(t *testing.T, s Store) {
	ctx := context.Background()
	const refunds = 20
	for i := 0; i < refunds; i++ {
		require.NoError(t, s.EnqueueRefund(ctx, buildTestRefund(uuid.NewString(), "alice", 10, nil)))
	}

	const sweepers = 4
	claimed := make([][]domain.Refund, sweepers)
	runConcurrently(sweepers, func(i int) {
		due, err := s.ClaimDueRefunds(ctx, ClaimRefundsInput{Now: testNow, Lease: time.Minute, Limit: refunds})
		assert.NoError(t, err)
		claimed[i] = due
	})

	seen := make(map[string]struct{})
	for _, batch := range claimed {
		for _, r := range batch {
			_, dup := seen[r.Reference]
			assert.False(t, dup, "refund %s claimed twice", r.Reference)
			seen[r.Reference] = struct{}{}
		}
	}
	assert.Len(t, seen, refunds)
}

// RunConcurrentStoreTests races writers against a Store whose operations each
// run on their own connection, so initDB must not pin a single transaction
func RunConcurrentStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"ConcurrentTransferOwnership", testConcurrentTransferOwnership},
		{"ConcurrentCreateAuction", testConcurrentCreateAuction},
		{"ConcurrentRecordBid", testConcurrentRecordBid},
		{"ConcurrentClaimDueRefunds", testConcurrentClaimDueRefunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}
