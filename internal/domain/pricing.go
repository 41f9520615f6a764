package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Pricing holds the tunable constants of auction arithmetic
type Pricing struct {
	// Increment is the default bid increment
	Increment int64
	// BuyNowPremium is the fractional premium over the minimum next bid (0.15 = 15%)
	BuyNowPremium decimal.Decimal
	// BuyNowPremiumFloor is the minimum absolute premium over the minimum next bid
	BuyNowPremiumFloor int64
	// LifetimeYears is the protection span granted when no protection days are set
	LifetimeYears int
}

// DefaultPricing returns the pricing constants used when none are configured
func DefaultPricing() Pricing {
	return Pricing{
		Increment:          DEFAULT_BID_INCREMENT,
		BuyNowPremium:      decimal.RequireFromString(DEFAULT_BUY_NOW_PREMIUM),
		BuyNowPremiumFloor: DEFAULT_BUY_NOW_PREMIUM_FLOOR,
		LifetimeYears:      LIFETIME_PROTECTION_YEARS,
	}
}

// DefaultStartingBid is the starting bid of an auction when none is given
func DefaultStartingBid(basePrice int64) int64 {
	return addCapped(basePrice, 1)
}

// MaxBid returns the largest amount an auction with the given increment can
// accept while its next minimum bid still fits in an int64
func MaxBid(increment int64) int64 {
	return math.MaxInt64 - max(increment, 0)
}

// MinNextBid returns the authoritative minimum acceptable next bid
func MinNextBid(startingBid, currentBid, increment int64, hasBids bool) int64 {
	if !hasBids {
		return startingBid
	}
	return addCapped(currentBid, increment)
}

// BuyNowPrice returns the instant purchase price of a territory.
// Without an auction or bids it is the base price. Once a bid at or above the
// base price exists it is max(ceil(minNextBid * (1 + premium)), minNextBid + floor).
func (p Pricing) BuyNowPrice(basePrice int64, auction *Auction) int64 {
	if auction == nil || auction.Status != AuctionStatusActive || !auction.HasBids() {
		return basePrice
	}

	minNext := auction.MinNextBid
	if auction.CurrentBid < basePrice {
		return max(basePrice, minNext)
	}

	premium := decimal.NewFromInt(minNext).
		Mul(decimal.NewFromInt(1).Add(p.BuyNowPremium)).
		Ceil()
	if premium.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxInt64
	}
	return max(premium.IntPart(), addCapped(minNext, p.BuyNowPremiumFloor))
}

// Grant returns the protection grant for an auction win or purchase.
// A nil days value grants lifetime protection.
func (p Pricing) Grant(days *int, extend bool) ProtectionGrant {
	years := p.LifetimeYears
	if years <= 0 {
		years = LIFETIME_PROTECTION_YEARS
	}
	return ProtectionGrant{Days: days, LifetimeYears: years, Extend: extend}
}

// addCapped adds two non-negative amounts, saturating at math.MaxInt64
func addCapped(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
