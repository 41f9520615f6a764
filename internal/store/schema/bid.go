package schema

import (
	"time"
)

// Bid represents the bids table - append-only record of accepted bids
type Bid struct {
	// ID is the bid identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// AuctionID is the auction this bid was accepted into
	AuctionID string `gorm:"column:auction_id;not null;type:text;index:idx_bids_auction_accepted,priority:1"`
	// BidderID is the user who placed the bid
	BidderID string `gorm:"column:bidder_id;not null;type:text"`
	// Amount is the accepted bid amount
	Amount int64 `gorm:"column:amount;not null"`
	// AcceptedAt is when the bid was committed
	AcceptedAt time.Time `gorm:"column:accepted_at;not null;type:timestamptz;index:idx_bids_auction_accepted,priority:2"`

	// Associations
	Auction Auction `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Bid model
func (Bid) TableName() string {
	return "bids"
}
