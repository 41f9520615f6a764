package domain

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinNextBid(t *testing.T) {
	assert.Equal(t, int64(101), MinNextBid(101, 0, 1, false))
	assert.Equal(t, int64(103), MinNextBid(101, 102, 1, true))
	assert.Equal(t, int64(150), MinNextBid(101, 100, 50, true))
	assert.Equal(t, int64(101), DefaultStartingBid(100))
}

func TestMinNextBid_NeverWraps(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), MinNextBid(1, math.MaxInt64, 1, true))
	assert.Equal(t, int64(math.MaxInt64), MinNextBid(1, math.MaxInt64-5, 10, true))
	assert.Equal(t, int64(math.MaxInt64), DefaultStartingBid(math.MaxInt64))

	assert.Equal(t, int64(math.MaxInt64-1), MaxBid(1))
	assert.Equal(t, int64(math.MaxInt64-100), MaxBid(100))
	assert.Equal(t, int64(math.MaxInt64), MaxBid(0))

	// The largest admissible bid still yields a representable next minimum
	top := MaxBid(7)
	assert.Equal(t, int64(math.MaxInt64), MinNextBid(1, top, 7, true))
	assert.Greater(t, MinNextBid(1, top, 7, true), top)
}

func TestPricing_BuyNowPriceSaturates(t *testing.T) {
	tests := []struct {
		name    string
		pricing Pricing
		auction *Auction
	}{
		{
			name:    "premium overflows int64",
			pricing: DefaultPricing(),
			// 8.5e18 * 1.15 is past math.MaxInt64
			auction: &Auction{Status: AuctionStatusActive, CurrentBid: 8_499_999_999_999_999_999, MinNextBid: 8_500_000_000_000_000_000, BidCount: 1},
		},
		{
			name:    "floor overflows int64",
			pricing: Pricing{BuyNowPremium: decimal.Zero, BuyNowPremiumFloor: 10},
			auction: &Auction{Status: AuctionStatusActive, CurrentBid: math.MaxInt64 - 2, MinNextBid: math.MaxInt64 - 1, BidCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := tt.pricing.BuyNowPrice(1, tt.auction)
			assert.Equal(t, int64(math.MaxInt64), price)
			assert.GreaterOrEqual(t, price, tt.auction.MinNextBid)
		})
	}
}

func TestPricing_BuyNowPrice(t *testing.T) {
	p := DefaultPricing()

	tests := []struct {
		name      string
		basePrice int64
		auction   *Auction
		expected  int64
	}{
		{
			name:      "no auction",
			basePrice: 100,
			auction:   nil,
			expected:  100,
		},
		{
			name:      "auction without bids",
			basePrice: 100,
			auction:   &Auction{Status: AuctionStatusActive, StartingBid: 101, MinNextBid: 101},
			expected:  100,
		},
		{
			name:      "percentage premium dominates",
			basePrice: 100,
			auction:   &Auction{Status: AuctionStatusActive, CurrentBid: 102, MinNextBid: 103, BidCount: 2},
			// ceil(103 * 1.15) = ceil(118.45) = 119 > 113
			expected: 119,
		},
		{
			name:      "floor premium dominates",
			basePrice: 10,
			auction:   &Auction{Status: AuctionStatusActive, CurrentBid: 20, MinNextBid: 21, BidCount: 1},
			// ceil(21 * 1.15) = 25 < 31
			expected: 31,
		},
		{
			name:      "bid below base price",
			basePrice: 100,
			auction:   &Auction{Status: AuctionStatusActive, CurrentBid: 50, MinNextBid: 51, BidCount: 1},
			expected:  100,
		},
		{
			name:      "ended auction falls back to base price",
			basePrice: 100,
			auction:   &Auction{Status: AuctionStatusEnded, CurrentBid: 500, MinNextBid: 501, BidCount: 4},
			expected:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.BuyNowPrice(tt.basePrice, tt.auction))
		})
	}
}

func TestPricing_ConfigurablePremium(t *testing.T) {
	p := Pricing{BuyNowPremium: decimal.RequireFromString("0.5"), BuyNowPremiumFloor: 1}
	a := &Auction{Status: AuctionStatusActive, CurrentBid: 100, MinNextBid: 101, BidCount: 1}
	// ceil(101 * 1.5) = 152
	assert.Equal(t, int64(152), p.BuyNowPrice(100, a))
}

func TestPricing_Grant(t *testing.T) {
	p := DefaultPricing()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	days := 7
	g := p.Grant(&days, false)
	deadline, ok := g.Deadline(now, nil)
	assert.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, 7), deadline)

	lifetime, ok := p.Grant(nil, false).Deadline(now, nil)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2126, 3, 1, 0, 0, 0, 0, time.UTC), lifetime)

	zero := Pricing{}.Grant(nil, false)
	assert.Equal(t, LIFETIME_PROTECTION_YEARS, zero.LifetimeYears)

	none := 0
	_, ok = p.Grant(&none, false).Deadline(now, nil)
	assert.False(t, ok)

	// Extensions start from the running deadline when it is in the future
	current := now.AddDate(0, 0, 3)
	extended, ok := p.Grant(&days, true).Deadline(now, &current)
	assert.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, 10), extended)

	past := now.AddDate(0, 0, -3)
	extended, ok = p.Grant(&days, true).Deadline(now, &past)
	assert.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, 7), extended)
}
