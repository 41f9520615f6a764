package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/config"
)

func TestPolicyFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AuctionConfig
		wantErr bool
		check   func(t *testing.T, p Policy)
	}{
		{
			name: "empty config keeps defaults",
			cfg:  config.AuctionConfig{},
			check: func(t *testing.T, p Policy) {
				assert.Equal(t, DefaultPolicy().DefaultDuration, p.DefaultDuration)
				assert.Equal(t, "0.15", p.Pricing.BuyNowPremium.String())
				assert.Equal(t, int64(1), p.Pricing.Increment)
			},
		},
		{
			name: "overrides",
			cfg: config.AuctionConfig{
				Increment:            5,
				DefaultDuration:      2 * time.Hour,
				BuyNowPremium:        "0.2",
				BuyNowPremiumFloor:   25,
				BuyNowProtectionDays: 3,
				WalletTimeout:        time.Second,
			},
			check: func(t *testing.T, p Policy) {
				assert.Equal(t, int64(5), p.Pricing.Increment)
				assert.Equal(t, 2*time.Hour, p.DefaultDuration)
				assert.Equal(t, "0.2", p.Pricing.BuyNowPremium.String())
				assert.Equal(t, int64(25), p.Pricing.BuyNowPremiumFloor)
				assert.Equal(t, 3, p.BuyNowProtectionDays)
				assert.Equal(t, time.Second, p.WalletTimeout)
			},
		},
		{
			name:    "invalid premium",
			cfg:     config.AuctionConfig{BuyNowPremium: "fifteen"},
			wantErr: true,
		},
		{
			name:    "negative premium",
			cfg:     config.AuctionConfig{BuyNowPremium: "-0.1"},
			wantErr: true,
		},
		{
			name:    "min above max",
			cfg:     config.AuctionConfig{MinDuration: 2 * time.Hour, MaxDuration: time.Hour},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PolicyFromConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestPolicy_Duration(t *testing.T) {
	p := DefaultPolicy()

	short := time.Second
	long := 30 * 24 * time.Hour
	custom := 3 * time.Hour

	assert.Equal(t, 24*time.Hour, p.Duration(nil))
	assert.Equal(t, time.Minute, p.Duration(&short))
	assert.Equal(t, 7*24*time.Hour, p.Duration(&long))
	assert.Equal(t, custom, p.Duration(&custom))
}
