package schema

import (
	"time"
)

// Sovereignty represents the ownership state stored for a territory
type Sovereignty string

const (
	SovereigntyUnconquered Sovereignty = "UNCONQUERED"
	SovereigntyContested   Sovereignty = "CONTESTED"
	SovereigntyRuled       Sovereignty = "RULED"
	SovereigntyProtected   Sovereignty = "PROTECTED"
)

// Territory represents the territories table - the authoritative ownership record of each catalogue entry
type Territory struct {
	// ID is the catalogue identifier of the territory (e.g., "FR", "JP-13")
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Name is the display label from the catalogue
	Name string `gorm:"column:name;not null;default:'';type:text"`
	// Sovereignty is the current ownership state
	Sovereignty Sovereignty `gorm:"column:sovereignty;not null;type:text;index:idx_territories_protection,priority:1"`
	// RulerID is the user currently ruling the territory (nil when unconquered)
	RulerID *string `gorm:"column:ruler_id;type:text;index"`
	// RulerSince is when the current ruler took the territory
	RulerSince *time.Time `gorm:"column:ruler_since;type:timestamptz"`
	// ProtectionEndsAt is the deadline of the protection period (nil when never protected)
	ProtectionEndsAt *time.Time `gorm:"column:protection_ends_at;type:timestamptz;index:idx_territories_protection,priority:2"`
	// BasePrice is the floor price, reset to the settlement amount on every transfer
	BasePrice int64 `gorm:"column:base_price;not null"`
	// CurrentAuctionID references the auction currently running on this territory
	CurrentAuctionID *string `gorm:"column:current_auction_id;type:text"`
	// Version is the optimistic concurrency token, incremented on every write
	Version int64 `gorm:"column:version;not null;default:1"`
	// CreatedAt is when the territory was seeded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is when the territory was last written
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Territory model
func (Territory) TableName() string {
	return "territories"
}
