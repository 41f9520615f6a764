package domain

import (
	"time"
)

// Sovereignty represents the ownership state of a territory
type Sovereignty string

const (
	SovereigntyUnconquered Sovereignty = "UNCONQUERED"
	SovereigntyContested   Sovereignty = "CONTESTED"
	SovereigntyRuled       Sovereignty = "RULED"
	SovereigntyProtected   Sovereignty = "PROTECTED"
)

// IsValidSovereignty checks if a sovereignty value is valid
func IsValidSovereignty(s Sovereignty) bool {
	return s == SovereigntyUnconquered ||
		s == SovereigntyContested ||
		s == SovereigntyRuled ||
		s == SovereigntyProtected
}

// AuctionType represents the kind of auction
type AuctionType string

const (
	// AuctionTypeStandard is an open auction for the territory
	AuctionTypeStandard AuctionType = "STANDARD"
	// AuctionTypeProtectionExtension is opened by the sitting ruler to extend protection
	AuctionTypeProtectionExtension AuctionType = "PROTECTION_EXTENSION"
)

// IsValidAuctionType checks if an auction type is valid
func IsValidAuctionType(t AuctionType) bool {
	return t == AuctionTypeStandard || t == AuctionTypeProtectionExtension
}

// AuctionStatus represents the lifecycle status of an auction
type AuctionStatus string

const (
	AuctionStatusActive    AuctionStatus = "ACTIVE"
	AuctionStatusEnded     AuctionStatus = "ENDED"
	AuctionStatusCancelled AuctionStatus = "CANCELLED"
)

// IsTerminal reports whether the status can no longer change
func (s AuctionStatus) IsTerminal() bool {
	return s == AuctionStatusEnded || s == AuctionStatusCancelled
}

// Territory is the authoritative ownership record of a catalogue entry
type Territory struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Sovereignty      Sovereignty `json:"sovereignty"`
	RulerID          *string     `json:"ruler_id"`
	RulerSince       *time.Time  `json:"ruler_since"`
	ProtectionEndsAt *time.Time  `json:"protection_ends_at"`
	BasePrice        int64       `json:"base_price"`
	CurrentAuctionID *string     `json:"current_auction_id"`
	Version          int64       `json:"version"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// IsProtectedAt reports whether protection blocks instant purchase at the given time
func (t *Territory) IsProtectedAt(now time.Time) bool {
	return t.Sovereignty == SovereigntyProtected &&
		t.ProtectionEndsAt != nil &&
		t.ProtectionEndsAt.After(now)
}

// IsProtectionLapsed reports whether the territory is still marked protected
// but its deadline has passed. Only the sweeper may commit the transition.
func (t *Territory) IsProtectionLapsed(now time.Time) bool {
	return t.Sovereignty == SovereigntyProtected &&
		t.ProtectionEndsAt != nil &&
		!t.ProtectionEndsAt.After(now)
}

// IsRuledBy reports whether userID is the sitting ruler
func (t *Territory) IsRuledBy(userID string) bool {
	return t.RulerID != nil && *t.RulerID == userID
}

// RestingSovereignty returns the sovereignty the territory has when no auction is active
func (t *Territory) RestingSovereignty(now time.Time) Sovereignty {
	switch {
	case t.RulerID == nil:
		return SovereigntyUnconquered
	case t.ProtectionEndsAt != nil && t.ProtectionEndsAt.After(now):
		return SovereigntyProtected
	default:
		return SovereigntyRuled
	}
}

// ContestedSovereignty returns the sovereignty the territory has while an auction is active.
// Protection is kept while contested so that the sweeper remains the only writer of expiry.
func (t *Territory) ContestedSovereignty() Sovereignty {
	if t.Sovereignty == SovereigntyProtected {
		return SovereigntyProtected
	}
	return SovereigntyContested
}

// Auction is a time-boxed competitive bidding process for one territory
type Auction struct {
	ID              string        `json:"id"`
	TerritoryID     string        `json:"territory_id"`
	Type            AuctionType   `json:"type"`
	Status          AuctionStatus `json:"status"`
	StartingBid     int64         `json:"starting_bid"`
	CurrentBid      int64         `json:"current_bid"`
	Increment       int64         `json:"increment"`
	MinNextBid      int64         `json:"min_next_bid"`
	HighestBidderID *string       `json:"highest_bidder_id"`
	BidCount        int64         `json:"bid_count"`
	EndTime         time.Time     `json:"end_time"`
	ProtectionDays  *int          `json:"protection_days"`
	CreatedBy       string        `json:"created_by"`
	CancelReason    *string       `json:"cancel_reason,omitempty"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	Version         int64         `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// HasBids reports whether at least one bid was accepted
func (a *Auction) HasBids() bool {
	return a.BidCount > 0
}

// IsOpenAt reports whether the auction accepts bids at the given time
func (a *Auction) IsOpenAt(now time.Time) bool {
	return a.Status == AuctionStatusActive && now.Before(a.EndTime)
}

// IsExpiredAt reports whether the auction is still active but past its end time
func (a *Auction) IsExpiredAt(now time.Time) bool {
	return a.Status == AuctionStatusActive && !now.Before(a.EndTime)
}

// Bid is an immutable record of an accepted bid
type Bid struct {
	ID         string    `json:"id"`
	AuctionID  string    `json:"auction_id"`
	BidderID   string    `json:"bidder_id"`
	Amount     int64     `json:"amount"`
	AcceptedAt time.Time `json:"accepted_at"`
}
