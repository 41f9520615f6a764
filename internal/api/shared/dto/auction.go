package dto

import (
	"time"

	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// AuctionResponse represents an auction in API responses
type AuctionResponse struct {
	ID              string               `json:"id"`
	TerritoryID     string               `json:"territory_id"`
	Type            domain.AuctionType   `json:"type"`
	Status          domain.AuctionStatus `json:"status"`
	StartingBid     int64                `json:"starting_bid"`
	CurrentBid      int64                `json:"current_bid"`
	Increment       int64                `json:"increment"`
	MinNextBid      int64                `json:"min_next_bid"`
	HighestBidderID *string              `json:"highest_bidder_id"`
	BidCount        int64                `json:"bid_count"`
	EndTime         time.Time            `json:"end_time"`
	ProtectionDays  *int                 `json:"protection_days"`
	CreatedBy       string               `json:"created_by"`
	CancelReason    *string              `json:"cancel_reason,omitempty"`
	EndedAt         *time.Time           `json:"ended_at,omitempty"`
	Version         int64                `json:"version"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// BidResponse represents an accepted bid
type BidResponse struct {
	ID         string    `json:"id"`
	AuctionID  string    `json:"auction_id"`
	BidderID   string    `json:"bidder_id"`
	Amount     int64     `json:"amount"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// BidListResponse represents a paginated list of bids, newest first
type BidListResponse struct {
	Bids   []BidResponse `json:"items"`
	Offset *uint64       `json:"offset,omitempty"` // Offset for the next page
	Total  uint64        `json:"total"`
}

// MapAuctionToDTO maps a domain.Auction to AuctionResponse
func MapAuctionToDTO(a *domain.Auction) *AuctionResponse {
	return &AuctionResponse{
		ID:              a.ID,
		TerritoryID:     a.TerritoryID,
		Type:            a.Type,
		Status:          a.Status,
		StartingBid:     a.StartingBid,
		CurrentBid:      a.CurrentBid,
		Increment:       a.Increment,
		MinNextBid:      a.MinNextBid,
		HighestBidderID: a.HighestBidderID,
		BidCount:        a.BidCount,
		EndTime:         a.EndTime,
		ProtectionDays:  a.ProtectionDays,
		CreatedBy:       a.CreatedBy,
		CancelReason:    a.CancelReason,
		EndedAt:         a.EndedAt,
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// MapBidToDTO maps a domain.Bid to BidResponse
func MapBidToDTO(b *domain.Bid) *BidResponse {
	return &BidResponse{
		ID:         b.ID,
		AuctionID:  b.AuctionID,
		BidderID:   b.BidderID,
		Amount:     b.Amount,
		AcceptedAt: b.AcceptedAt,
	}
}
