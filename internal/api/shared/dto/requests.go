package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/feral-file/ff-sovereignty/internal/api/shared/constants"
	apierrors "github.com/feral-file/ff-sovereignty/internal/api/shared/errors"
	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// CreateAuctionRequest represents the request body for opening an auction on a territory
type CreateAuctionRequest struct {
	Type            domain.AuctionType `json:"type"`
	ProtectionDays  *int               `json:"protection_days,omitempty"`
	StartingBid     *int64             `json:"starting_bid,omitempty"`
	DurationSeconds *int64             `json:"duration_seconds,omitempty"`
}

// Validate validates the request body
func (r *CreateAuctionRequest) Validate() error {
	if r.Type != "" && !domain.IsValidAuctionType(r.Type) {
		return apierrors.NewValidationError(fmt.Sprintf("unsupported auction type: %s", r.Type))
	}

	if r.ProtectionDays != nil && *r.ProtectionDays < 0 {
		return apierrors.NewValidationError("protection_days must not be negative")
	}

	if r.StartingBid != nil && *r.StartingBid <= 0 {
		return apierrors.NewValidationError("starting_bid must be positive")
	}

	if r.StartingBid != nil && *r.StartingBid > constants.MAX_AMOUNT {
		return apierrors.NewValidationError(fmt.Sprintf("starting_bid must not exceed %d", constants.MAX_AMOUNT))
	}

	if r.DurationSeconds != nil && *r.DurationSeconds <= 0 {
		return apierrors.NewValidationError("duration_seconds must be positive")
	}

	return nil
}

// Duration returns the requested auction duration, if any
func (r *CreateAuctionRequest) Duration() *time.Duration {
	if r.DurationSeconds == nil {
		return nil
	}
	d := time.Duration(*r.DurationSeconds) * time.Second
	return &d
}

// PlaceBidRequest represents the request body for placing a bid
type PlaceBidRequest struct {
	Amount int64 `json:"amount"`
	// ObservedVersion is the auction version the client rendered, if known
	ObservedVersion *int64 `json:"observed_version,omitempty"`
}

// Validate validates the request body
func (r *PlaceBidRequest) Validate() error {
	if r.Amount <= 0 {
		return apierrors.NewValidationError("amount must be positive")
	}

	if r.Amount > constants.MAX_AMOUNT {
		return apierrors.NewValidationError(fmt.Sprintf("amount must not exceed %d", constants.MAX_AMOUNT))
	}

	if r.ObservedVersion != nil && *r.ObservedVersion <= 0 {
		return apierrors.NewValidationError("observed_version must be positive")
	}

	return nil
}

// BuyNowRequest represents the request body for an instant purchase
type BuyNowRequest struct {
	// ObservedVersion is the territory version the client rendered, if known
	ObservedVersion *int64 `json:"observed_version,omitempty"`
	// MaxPrice aborts the purchase if the price moved above it
	MaxPrice *int64 `json:"max_price,omitempty"`
}

// Validate validates the request body
func (r *BuyNowRequest) Validate() error {
	if r.ObservedVersion != nil && *r.ObservedVersion <= 0 {
		return apierrors.NewValidationError("observed_version must be positive")
	}

	if r.MaxPrice != nil && *r.MaxPrice <= 0 {
		return apierrors.NewValidationError("max_price must be positive")
	}

	if r.MaxPrice != nil && *r.MaxPrice > constants.MAX_AMOUNT {
		return apierrors.NewValidationError(fmt.Sprintf("max_price must not exceed %d", constants.MAX_AMOUNT))
	}

	return nil
}

// CancelAuctionRequest represents the request body for cancelling an auction
type CancelAuctionRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request body
func (r *CancelAuctionRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return apierrors.NewValidationError("reason is required")
	}

	if len(r.Reason) > constants.MAX_CANCEL_REASON_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("reason must be at most %d characters", constants.MAX_CANCEL_REASON_LENGTH))
	}

	return nil
}

// EndAuctionRequest represents the request body for ending an auction
type EndAuctionRequest struct {
	// Force ends the auction before its end time; admin only
	Force bool `json:"force"`
}
