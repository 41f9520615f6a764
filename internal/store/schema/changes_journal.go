package schema

import (
	"time"

	"gorm.io/datatypes"
)

// SubjectType represents the type of entity that was changed
type SubjectType string

const (
	// SubjectTypeTerritory indicates a change to territory sovereignty (transfer, expiry, release)
	SubjectTypeTerritory SubjectType = "territory"
	// SubjectTypeAuction indicates a change to auction state (opened, bid, ended, cancelled)
	SubjectTypeAuction SubjectType = "auction"
)

// ChangeKind describes what happened to the subject
type ChangeKind string

const (
	ChangeKindOwnershipChanged  ChangeKind = "ownership_changed"
	ChangeKindProtectionExpired ChangeKind = "protection_expired"
	ChangeKindTerritoryReleased ChangeKind = "territory_released"
	ChangeKindAuctionOpened     ChangeKind = "auction_opened"
	ChangeKindBidAccepted       ChangeKind = "bid_accepted"
	ChangeKindAuctionEnded      ChangeKind = "auction_ended"
	ChangeKindAuctionCancelled  ChangeKind = "auction_cancelled"
)

// ChangesJournal represents the changes_journal table - audit log of every committed sovereignty and auction write
type ChangesJournal struct {
	// Cursor is an auto-incrementing sequence number for efficient pagination and ordering
	Cursor int64 `gorm:"column:\"cursor\";primaryKey;autoIncrement"`
	// SubjectType identifies what kind of entity changed (territory, auction)
	SubjectType SubjectType `gorm:"column:subject_type;not null;type:text"`
	// SubjectID is the identifier of the changed entity
	SubjectID string `gorm:"column:subject_id;not null;type:text"`
	// Kind describes the transition
	Kind ChangeKind `gorm:"column:kind;not null;type:text"`
	// Version is the entity version produced by the change
	Version int64 `gorm:"column:version;not null"`
	// ChangedAt is the timestamp when the change occurred
	ChangedAt time.Time `gorm:"column:changed_at;not null;default:now();type:timestamptz"`
	// Meta contains additional context about the change as JSON (ruler, price, bidder, reason)
	Meta datatypes.JSON `gorm:"column:meta;type:jsonb"`
}

// TableName specifies the table name for the ChangesJournal model
func (ChangesJournal) TableName() string {
	return "changes_journal"
}
