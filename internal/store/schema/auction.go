package schema

import (
	"time"
)

// AuctionType represents the kind of auction
type AuctionType string

const (
	AuctionTypeStandard            AuctionType = "STANDARD"
	AuctionTypeProtectionExtension AuctionType = "PROTECTION_EXTENSION"
)

// AuctionStatus represents the lifecycle status of an auction
type AuctionStatus string

const (
	AuctionStatusActive    AuctionStatus = "ACTIVE"
	AuctionStatusEnded     AuctionStatus = "ENDED"
	AuctionStatusCancelled AuctionStatus = "CANCELLED"
)

// Auction represents the auctions table - one bidding process per territory at a time
type Auction struct {
	// ID is the auction identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// TerritoryID is the territory being auctioned
	TerritoryID string `gorm:"column:territory_id;not null;type:text;index"`
	// Type is STANDARD or PROTECTION_EXTENSION
	Type AuctionType `gorm:"column:type;not null;type:text"`
	// Status is ACTIVE, ENDED or CANCELLED
	Status AuctionStatus `gorm:"column:status;not null;type:text;index:idx_auctions_status_end_time,priority:1"`
	// StartingBid is the minimum first bid
	StartingBid int64 `gorm:"column:starting_bid;not null"`
	// CurrentBid is the highest accepted bid (0 before the first bid)
	CurrentBid int64 `gorm:"column:current_bid;not null;default:0"`
	// Increment is the minimum raise over the current bid
	Increment int64 `gorm:"column:increment;not null;default:1"`
	// MinNextBid is the authoritative minimum next acceptable bid
	MinNextBid int64 `gorm:"column:min_next_bid;not null"`
	// HighestBidderID is the leading bidder
	HighestBidderID *string `gorm:"column:highest_bidder_id;type:text"`
	// BidCount is the number of accepted bids
	BidCount int64 `gorm:"column:bid_count;not null;default:0"`
	// EndTime is when the auction stops accepting bids
	EndTime time.Time `gorm:"column:end_time;not null;type:timestamptz;index:idx_auctions_status_end_time,priority:2"`
	// ProtectionDays is the protection granted to the winner (nil means lifetime)
	ProtectionDays *int `gorm:"column:protection_days"`
	// CreatedBy is the user who opened the auction
	CreatedBy string `gorm:"column:created_by;not null;type:text"`
	// CancelReason records why an auction was cancelled
	CancelReason *string `gorm:"column:cancel_reason;type:text"`
	// EndedAt is when the auction reached a terminal status
	EndedAt *time.Time `gorm:"column:ended_at;type:timestamptz"`
	// Version is the optimistic concurrency token, incremented on every write
	Version int64 `gorm:"column:version;not null;default:1"`
	// CreatedAt is when the auction was opened
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is when the auction was last written
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Territory Territory `gorm:"foreignKey:TerritoryID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Auction model
func (Auction) TableName() string {
	return "auctions"
}
