package dto_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/api/shared/constants"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-sovereignty/internal/api/shared/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func assertValidationError(t *testing.T, err error, details string) {
	t.Helper()
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr), "expected an APIError, got %v", err)
	assert.Equal(t, apierrors.ErrCodeValidationFailed, apiErr.Code)
	assert.Contains(t, apiErr.Details, details)
}

func TestPlaceBidRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.PlaceBidRequest
		wantErr string
	}{
		{name: "valid", req: dto.PlaceBidRequest{Amount: 120}},
		{name: "largest amount", req: dto.PlaceBidRequest{Amount: constants.MAX_AMOUNT}},
		{name: "zero amount", req: dto.PlaceBidRequest{Amount: 0}, wantErr: "amount must be positive"},
		{name: "amount above bound", req: dto.PlaceBidRequest{Amount: constants.MAX_AMOUNT + 1}, wantErr: "amount must not exceed"},
		{name: "max int64 amount", req: dto.PlaceBidRequest{Amount: math.MaxInt64}, wantErr: "amount must not exceed"},
		{name: "bad observed version", req: dto.PlaceBidRequest{Amount: 120, ObservedVersion: int64Ptr(0)}, wantErr: "observed_version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assertValidationError(t, err, tt.wantErr)
		})
	}
}

func TestCreateAuctionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.CreateAuctionRequest
		wantErr string
	}{
		{name: "defaults", req: dto.CreateAuctionRequest{}},
		{name: "starting bid at bound", req: dto.CreateAuctionRequest{StartingBid: int64Ptr(constants.MAX_AMOUNT)}},
		{name: "starting bid above bound", req: dto.CreateAuctionRequest{StartingBid: int64Ptr(math.MaxInt64)}, wantErr: "starting_bid must not exceed"},
		{name: "negative starting bid", req: dto.CreateAuctionRequest{StartingBid: int64Ptr(-1)}, wantErr: "starting_bid must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assertValidationError(t, err, tt.wantErr)
		})
	}
}

func TestBuyNowRequest_Validate(t *testing.T) {
	assert.NoError(t, (&dto.BuyNowRequest{MaxPrice: int64Ptr(constants.MAX_AMOUNT)}).Validate())
	assertValidationError(t, (&dto.BuyNowRequest{MaxPrice: int64Ptr(constants.MAX_AMOUNT + 1)}).Validate(), "max_price must not exceed")
	assertValidationError(t, (&dto.BuyNowRequest{MaxPrice: int64Ptr(0)}).Validate(), "max_price must be positive")
}
