package domain

import (
	"time"
)

// ProtectionGrant describes the protection given to a new or returning ruler
type ProtectionGrant struct {
	// Days of protection; nil grants LifetimeYears, zero grants none
	Days          *int `json:"days"`
	LifetimeYears int  `json:"lifetime_years"`
	// Extend starts the grant from the running deadline when the ruler keeps the territory
	Extend bool `json:"extend"`
}

// Deadline returns the protection deadline for the grant. The second value is
// false when the grant carries no protection.
func (g ProtectionGrant) Deadline(now time.Time, current *time.Time) (time.Time, bool) {
	from := now
	if g.Extend && current != nil && current.After(now) {
		from = *current
	}

	if g.Days == nil {
		years := g.LifetimeYears
		if years <= 0 {
			years = LIFETIME_PROTECTION_YEARS
		}
		return from.AddDate(years, 0, 0), true
	}
	if *g.Days <= 0 {
		return time.Time{}, false
	}
	return from.AddDate(0, 0, *g.Days), true
}

// TransferTo applies a conquest to the territory: the new ruler takes it at the
// settlement price and receives the protection grant. The caller guarantees the
// version token matched.
func (t *Territory) TransferTo(newRulerID string, settlementPrice int64, grant ProtectionGrant, now time.Time) {
	keeps := t.IsRuledBy(newRulerID)
	if !keeps {
		ruler := newRulerID
		since := now
		t.RulerID = &ruler
		t.RulerSince = &since
	}

	var current *time.Time
	if keeps && grant.Extend {
		current = t.ProtectionEndsAt
	}
	if deadline, ok := grant.Deadline(now, current); ok {
		t.ProtectionEndsAt = &deadline
		t.Sovereignty = SovereigntyProtected
	} else {
		t.ProtectionEndsAt = nil
		t.Sovereignty = SovereigntyRuled
	}

	t.BasePrice = settlementPrice
	t.CurrentAuctionID = nil
	t.bump(now)
}

// ExpireProtection demotes a lapsed protection. It returns ErrNoOp when the
// territory is not protected or the deadline is still in the future.
func (t *Territory) ExpireProtection(now time.Time) error {
	if !t.IsProtectionLapsed(now) {
		return ErrNoOp
	}
	if t.CurrentAuctionID != nil {
		t.Sovereignty = SovereigntyContested
	} else {
		t.Sovereignty = SovereigntyRuled
	}
	t.bump(now)
	return nil
}

// OpenAuction marks the territory as carrying an active auction
func (t *Territory) OpenAuction(auctionID string, now time.Time) {
	id := auctionID
	t.CurrentAuctionID = &id
	t.Sovereignty = t.ContestedSovereignty()
	t.bump(now)
}

// Release clears the auction reference and restores the resting sovereignty.
// A lapsed protection stays PROTECTED so that expiry remains the sweeper's write.
func (t *Territory) Release(now time.Time) {
	t.CurrentAuctionID = nil
	if t.Sovereignty != SovereigntyProtected {
		t.Sovereignty = t.RestingSovereignty(now)
	}
	t.bump(now)
}

func (t *Territory) bump(now time.Time) {
	t.Version++
	t.UpdatedAt = now
}

// AcceptBid applies an admitted bid to the auction and returns the bid record
func (a *Auction) AcceptBid(bidID, bidderID string, amount int64, now time.Time) Bid {
	bidder := bidderID
	a.CurrentBid = amount
	a.HighestBidderID = &bidder
	a.BidCount++
	a.MinNextBid = MinNextBid(a.StartingBid, a.CurrentBid, a.Increment, true)
	a.bump(now)

	return Bid{
		ID:         bidID,
		AuctionID:  a.ID,
		BidderID:   bidderID,
		Amount:     amount,
		AcceptedAt: now,
	}
}

// Close moves the auction to a terminal status
func (a *Auction) Close(status AuctionStatus, reason *string, now time.Time) {
	endedAt := now
	a.Status = status
	a.EndedAt = &endedAt
	if status == AuctionStatusCancelled {
		a.CancelReason = reason
	}
	a.bump(now)
}

func (a *Auction) bump(now time.Time) {
	a.Version++
	a.UpdatedAt = now
}
