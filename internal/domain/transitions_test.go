package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerritory_TransferTo(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p := DefaultPricing()
	days := 7

	t.Run("conquest of unconquered territory", func(t *testing.T) {
		terr := Territory{ID: "FR", Sovereignty: SovereigntyContested, BasePrice: 100, CurrentAuctionID: ptr("a1"), Version: 2}
		terr.TransferTo("alice", 102, p.Grant(&days, false), now)

		require.NotNil(t, terr.RulerID)
		assert.Equal(t, "alice", *terr.RulerID)
		assert.Equal(t, now, *terr.RulerSince)
		assert.Equal(t, SovereigntyProtected, terr.Sovereignty)
		assert.Equal(t, now.AddDate(0, 0, 7), *terr.ProtectionEndsAt)
		assert.Equal(t, int64(102), terr.BasePrice)
		assert.Nil(t, terr.CurrentAuctionID)
		assert.Equal(t, int64(3), terr.Version)
		assert.Equal(t, now, terr.UpdatedAt)
	})

	t.Run("lifetime protection", func(t *testing.T) {
		terr := Territory{Sovereignty: SovereigntyContested, Version: 1}
		terr.TransferTo("bob", 50, p.Grant(nil, false), now)
		assert.Equal(t, now.AddDate(100, 0, 0), *terr.ProtectionEndsAt)
	})

	t.Run("zero days leaves the territory ruled", func(t *testing.T) {
		zero := 0
		terr := Territory{Sovereignty: SovereigntyContested, Version: 1}
		terr.TransferTo("bob", 50, p.Grant(&zero, false), now)
		assert.Equal(t, SovereigntyRuled, terr.Sovereignty)
		assert.Nil(t, terr.ProtectionEndsAt)
	})

	t.Run("extension keeps ruler since and stacks protection", func(t *testing.T) {
		since := now.AddDate(0, -1, 0)
		ends := now.AddDate(0, 0, 2)
		terr := Territory{RulerID: ptr("alice"), RulerSince: &since, ProtectionEndsAt: &ends, Sovereignty: SovereigntyProtected, Version: 9}
		terr.TransferTo("alice", 300, p.Grant(&days, true), now)

		assert.Equal(t, since, *terr.RulerSince)
		assert.Equal(t, now.AddDate(0, 0, 9), *terr.ProtectionEndsAt)
		assert.Equal(t, int64(10), terr.Version)
	})

	t.Run("extension won by a challenger starts now", func(t *testing.T) {
		ends := now.AddDate(0, 0, 2)
		terr := Territory{RulerID: ptr("alice"), ProtectionEndsAt: &ends, Sovereignty: SovereigntyProtected}
		terr.TransferTo("carol", 300, p.Grant(&days, true), now)

		assert.Equal(t, "carol", *terr.RulerID)
		assert.Equal(t, now.AddDate(0, 0, 7), *terr.ProtectionEndsAt)
	})
}

func TestTerritory_ExpireProtection(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	lapsed := Territory{Sovereignty: SovereigntyProtected, RulerID: ptr("alice"), ProtectionEndsAt: ptr(now.Add(-time.Second)), Version: 4}
	require.NoError(t, lapsed.ExpireProtection(now))
	assert.Equal(t, SovereigntyRuled, lapsed.Sovereignty)
	assert.Equal(t, int64(5), lapsed.Version)

	// Second application is a no-op
	assert.ErrorIs(t, lapsed.ExpireProtection(now), ErrNoOp)
	assert.Equal(t, int64(5), lapsed.Version)

	future := Territory{Sovereignty: SovereigntyProtected, ProtectionEndsAt: ptr(now.Add(time.Hour))}
	assert.ErrorIs(t, future.ExpireProtection(now), ErrNoOp)

	auctioned := Territory{Sovereignty: SovereigntyProtected, ProtectionEndsAt: ptr(now), CurrentAuctionID: ptr("a1")}
	require.NoError(t, auctioned.ExpireProtection(now))
	assert.Equal(t, SovereigntyContested, auctioned.Sovereignty)
}

func TestTerritory_OpenAndRelease(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	terr := Territory{Sovereignty: SovereigntyUnconquered, Version: 1}
	terr.OpenAuction("a1", now)
	assert.Equal(t, SovereigntyContested, terr.Sovereignty)
	assert.Equal(t, "a1", *terr.CurrentAuctionID)

	terr.Release(now)
	assert.Equal(t, SovereigntyUnconquered, terr.Sovereignty)
	assert.Nil(t, terr.CurrentAuctionID)
	assert.Equal(t, int64(3), terr.Version)

	protected := Territory{Sovereignty: SovereigntyProtected, RulerID: ptr("alice"), ProtectionEndsAt: ptr(now.Add(-time.Minute))}
	protected.OpenAuction("a2", now)
	assert.Equal(t, SovereigntyProtected, protected.Sovereignty)
	protected.Release(now)
	// lapsed protection is left for the sweeper
	assert.Equal(t, SovereigntyProtected, protected.Sovereignty)
}

func TestAuction_AcceptBidAndClose(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	a := Auction{ID: "a1", Status: AuctionStatusActive, StartingBid: 101, Increment: 1, MinNextBid: 101, Version: 1}

	bid := a.AcceptBid("b1", "alice", 101, now)
	assert.Equal(t, Bid{ID: "b1", AuctionID: "a1", BidderID: "alice", Amount: 101, AcceptedAt: now}, bid)
	assert.Equal(t, int64(101), a.CurrentBid)
	assert.Equal(t, int64(102), a.MinNextBid)
	assert.Equal(t, int64(1), a.BidCount)
	assert.Equal(t, int64(2), a.Version)

	reason := "admin"
	a.Close(AuctionStatusCancelled, &reason, now)
	assert.Equal(t, AuctionStatusCancelled, a.Status)
	assert.Equal(t, "admin", *a.CancelReason)
	assert.Equal(t, now, *a.EndedAt)
	assert.Equal(t, int64(3), a.Version)
}
