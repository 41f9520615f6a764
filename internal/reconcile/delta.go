package reconcile

import (
	"time"

	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// EntityType is the kind of record a delta describes
type EntityType string

const (
	EntityTypeTerritory EntityType = "territory"
	EntityTypeAuction   EntityType = "auction"
)

// Kind identifies a delta variant on the wire
type Kind string

const (
	KindOwnershipChanged  Kind = "ownership_changed"
	KindAuctionUpdated    Kind = "auction_updated"
	KindProtectionExpired Kind = "protection_expired"
)

// OwnershipCause explains why a territory delta was emitted
type OwnershipCause string

const (
	OwnershipCauseConquest      OwnershipCause = "conquest"
	OwnershipCauseAuctionOpened OwnershipCause = "auction_opened"
	OwnershipCauseReleased      OwnershipCause = "released"
)

// Delta is a committed state change. The set of variants is closed:
// OwnershipChanged, AuctionUpdated and ProtectionExpired.
type Delta interface {
	Kind() Kind
	EntityType() EntityType
	EntityID() string
	EntityVersion() int64
	EntityUpdatedAt() time.Time
	TerritoryID() string

	isDelta()
}

// OwnershipChanged carries a territory snapshot after a conquest, or after an
// auction opened on it or released it
type OwnershipChanged struct {
	Territory       domain.Territory `json:"territory"`
	PreviousRulerID *string          `json:"previous_ruler_id,omitempty"`
	Cause           OwnershipCause   `json:"cause"`
	AuctionID       *string          `json:"auction_id,omitempty"`
}

func (d OwnershipChanged) Kind() Kind                 { return KindOwnershipChanged }
func (d OwnershipChanged) EntityType() EntityType     { return EntityTypeTerritory }
func (d OwnershipChanged) EntityID() string           { return d.Territory.ID }
func (d OwnershipChanged) EntityVersion() int64       { return d.Territory.Version }
func (d OwnershipChanged) EntityUpdatedAt() time.Time { return d.Territory.UpdatedAt }
func (d OwnershipChanged) TerritoryID() string        { return d.Territory.ID }
func (OwnershipChanged) isDelta()                     {}

// AuctionUpdated carries an auction snapshot after it opened, accepted a bid or closed
type AuctionUpdated struct {
	Auction domain.Auction `json:"auction"`
	Bid     *domain.Bid    `json:"bid,omitempty"`
}

func (d AuctionUpdated) Kind() Kind                 { return KindAuctionUpdated }
func (d AuctionUpdated) EntityType() EntityType     { return EntityTypeAuction }
func (d AuctionUpdated) EntityID() string           { return d.Auction.ID }
func (d AuctionUpdated) EntityVersion() int64       { return d.Auction.Version }
func (d AuctionUpdated) EntityUpdatedAt() time.Time { return d.Auction.UpdatedAt }
func (d AuctionUpdated) TerritoryID() string        { return d.Auction.TerritoryID }
func (AuctionUpdated) isDelta()                     {}

// ProtectionExpired carries a territory snapshot after the sweeper demoted its protection
type ProtectionExpired struct {
	Territory domain.Territory `json:"territory"`
}

func (d ProtectionExpired) Kind() Kind                 { return KindProtectionExpired }
func (d ProtectionExpired) EntityType() EntityType     { return EntityTypeTerritory }
func (d ProtectionExpired) EntityID() string           { return d.Territory.ID }
func (d ProtectionExpired) EntityVersion() int64       { return d.Territory.Version }
func (d ProtectionExpired) EntityUpdatedAt() time.Time { return d.Territory.UpdatedAt }
func (d ProtectionExpired) TerritoryID() string        { return d.Territory.ID }
func (ProtectionExpired) isDelta()                     {}

// NewTerritoryDelta builds the delta for a territory snapshot returned by a store write
func NewTerritoryDelta(prev *domain.Territory, next domain.Territory, cause OwnershipCause, auctionID *string) OwnershipChanged {
	d := OwnershipChanged{Territory: next, Cause: cause, AuctionID: auctionID}
	if prev != nil && prev.RulerID != nil {
		ruler := *prev.RulerID
		d.PreviousRulerID = &ruler
	}
	return d
}
