package auction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-sovereignty/internal/config"
	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// Policy holds the tunable rules of the engine
type Policy struct {
	Pricing domain.Pricing

	// DefaultDuration is the auction length when the creator gives none
	DefaultDuration time.Duration
	MinDuration     time.Duration
	MaxDuration     time.Duration

	// BuyNowProtectionDays is the protection granted to an instant purchase
	BuyNowProtectionDays int

	// WalletTimeout bounds each wallet call
	WalletTimeout time.Duration

	// MaxSettleAttempts bounds the re-reads when settling races another writer
	MaxSettleAttempts int
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		Pricing:              domain.DefaultPricing(),
		DefaultDuration:      24 * time.Hour,
		MinDuration:          time.Minute,
		MaxDuration:          7 * 24 * time.Hour,
		BuyNowProtectionDays: 7,
		WalletTimeout:        5 * time.Second,
		MaxSettleAttempts:    3,
	}
}

// PolicyFromConfig builds the policy from the auction configuration
func PolicyFromConfig(cfg config.AuctionConfig) (Policy, error) {
	p := DefaultPolicy()

	if cfg.Increment > 0 {
		p.Pricing.Increment = cfg.Increment
	}
	if cfg.LifetimeYears > 0 {
		p.Pricing.LifetimeYears = cfg.LifetimeYears
	}
	if cfg.BuyNowPremium != "" {
		premium, err := decimal.NewFromString(cfg.BuyNowPremium)
		if err != nil {
			return Policy{}, fmt.Errorf("invalid buy-now premium %q: %w", cfg.BuyNowPremium, err)
		}
		if premium.IsNegative() {
			return Policy{}, fmt.Errorf("buy-now premium must not be negative: %s", cfg.BuyNowPremium)
		}
		p.Pricing.BuyNowPremium = premium
	}
	if cfg.BuyNowPremiumFloor >= 0 {
		p.Pricing.BuyNowPremiumFloor = cfg.BuyNowPremiumFloor
	}
	if cfg.BuyNowProtectionDays > 0 {
		p.BuyNowProtectionDays = cfg.BuyNowProtectionDays
	}

	if cfg.DefaultDuration > 0 {
		p.DefaultDuration = cfg.DefaultDuration
	}
	if cfg.MinDuration > 0 {
		p.MinDuration = cfg.MinDuration
	}
	if cfg.MaxDuration > 0 {
		p.MaxDuration = cfg.MaxDuration
	}
	if p.MinDuration > p.MaxDuration {
		return Policy{}, fmt.Errorf("auction min duration %s exceeds max duration %s", p.MinDuration, p.MaxDuration)
	}

	if cfg.WalletTimeout > 0 {
		p.WalletTimeout = cfg.WalletTimeout
	}

	return p, nil
}

// Duration resolves the auction length requested by a creator
func (p Policy) Duration(requested *time.Duration) time.Duration {
	d := p.DefaultDuration
	if requested != nil && *requested > 0 {
		d = *requested
	}
	return min(max(d, p.MinDuration), p.MaxDuration)
}
