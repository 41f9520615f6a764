package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

func territoryToDomain(t schema.Territory) domain.Territory {
	return domain.Territory{
		ID:               t.ID,
		Name:             t.Name,
		Sovereignty:      domain.Sovereignty(t.Sovereignty),
		RulerID:          t.RulerID,
		RulerSince:       utcPtr(t.RulerSince),
		ProtectionEndsAt: utcPtr(t.ProtectionEndsAt),
		BasePrice:        t.BasePrice,
		CurrentAuctionID: t.CurrentAuctionID,
		Version:          t.Version,
		UpdatedAt:        t.UpdatedAt.UTC(),
	}
}

// territoryColumns returns the mutable columns of a territory for a versioned update
func territoryColumns(t domain.Territory) map[string]interface{} {
	return map[string]interface{}{
		"sovereignty":        string(t.Sovereignty),
		"ruler_id":           t.RulerID,
		"ruler_since":        t.RulerSince,
		"protection_ends_at": t.ProtectionEndsAt,
		"base_price":         t.BasePrice,
		"current_auction_id": t.CurrentAuctionID,
		"version":            t.Version,
		"updated_at":         t.UpdatedAt,
	}
}

func auctionToDomain(a schema.Auction) domain.Auction {
	return domain.Auction{
		ID:              a.ID,
		TerritoryID:     a.TerritoryID,
		Type:            domain.AuctionType(a.Type),
		Status:          domain.AuctionStatus(a.Status),
		StartingBid:     a.StartingBid,
		CurrentBid:      a.CurrentBid,
		Increment:       a.Increment,
		MinNextBid:      a.MinNextBid,
		HighestBidderID: a.HighestBidderID,
		BidCount:        a.BidCount,
		EndTime:         a.EndTime.UTC(),
		ProtectionDays:  a.ProtectionDays,
		CreatedBy:       a.CreatedBy,
		CancelReason:    a.CancelReason,
		EndedAt:         utcPtr(a.EndedAt),
		Version:         a.Version,
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}
}

func auctionFromDomain(a domain.Auction) schema.Auction {
	return schema.Auction{
		ID:              a.ID,
		TerritoryID:     a.TerritoryID,
		Type:            schema.AuctionType(a.Type),
		Status:          schema.AuctionStatus(a.Status),
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

// auctionColumns returns the mutable columns of an auction for a versioned update
func auctionColumns(a domain.Auction) map[string]interface{} {
	return map[string]interface{}{
		"status":            string(a.Status),
		"current_bid":       a.CurrentBid,
		"min_next_bid":      a.MinNextBid,
		"highest_bidder_id": a.HighestBidderID,
		"bid_count":         a.BidCount,
		"cancel_reason":     a.CancelReason,
		"ended_at":          a.EndedAt,
		"version":           a.Version,
		"updated_at":        a.UpdatedAt,
	}
}

func bidToDomain(b schema.Bid) domain.Bid {
	return domain.Bid{
		ID:         b.ID,
		AuctionID:  b.AuctionID,
		BidderID:   b.BidderID,
		Amount:     b.Amount,
		AcceptedAt: b.AcceptedAt.UTC(),
	}
}

func bidFromDomain(b domain.Bid) schema.Bid {
	return schema.Bid{
		ID:         b.ID,
		AuctionID:  b.AuctionID,
		BidderID:   b.BidderID,
		Amount:     b.Amount,
		AcceptedAt: b.AcceptedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// newJournalEntry builds a changes journal row for a committed write
func newJournalEntry(subjectType schema.SubjectType, subjectID string, kind schema.ChangeKind, version int64, changedAt time.Time, meta map[string]interface{}) (schema.ChangesJournal, error) {
	entry := schema.ChangesJournal{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Kind:        kind,
		Version:     version,
		ChangedAt:   changedAt,
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return entry, fmt.Errorf("failed to marshal journal meta: %w", err)
		}
		entry.Meta = datatypes.JSON(raw)
	}
	return entry, nil
}

// territoryJournal describes a territory write in the changes journal
func territoryJournal(kind schema.ChangeKind, prev, next domain.Territory, auctionID *string) (schema.ChangesJournal, error) {
	meta := map[string]interface{}{
		"sovereignty":          next.Sovereignty,
		"previous_sovereignty": prev.Sovereignty,
	}
	if next.RulerID != nil {
		meta["ruler_id"] = *next.RulerID
	}
	if prev.RulerID != nil && (next.RulerID == nil || *prev.RulerID != *next.RulerID) {
		meta["previous_ruler_id"] = *prev.RulerID
	}
	if next.ProtectionEndsAt != nil {
		meta["protection_ends_at"] = next.ProtectionEndsAt.UTC().Format(time.RFC3339)
	}
	if kind == schema.ChangeKindOwnershipChanged {
		meta["price"] = next.BasePrice
	}
	if auctionID != nil {
		meta["auction_id"] = *auctionID
	}
	return newJournalEntry(schema.SubjectTypeTerritory, next.ID, kind, next.Version, next.UpdatedAt, meta)
}

// auctionJournal describes an auction write in the changes journal
func auctionJournal(kind schema.ChangeKind, a domain.Auction, bid *domain.Bid) (schema.ChangesJournal, error) {
	meta := map[string]interface{}{
		"territory_id": a.TerritoryID,
		"status":       a.Status,
		"min_next_bid": a.MinNextBid,
	}
	if bid != nil {
		meta["bid_id"] = bid.ID
		meta["bidder_id"] = bid.BidderID
		meta["amount"] = bid.Amount
	}
	if a.HighestBidderID != nil && kind == schema.ChangeKindAuctionEnded {
		meta["winner_id"] = *a.HighestBidderID
		meta["price"] = a.CurrentBid
	}
	if a.CancelReason != nil {
		meta["reason"] = *a.CancelReason
	}
	return newJournalEntry(schema.SubjectTypeAuction, a.ID, kind, a.Version, a.UpdatedAt, meta)
}

func refundToDomain(r schema.PendingRefund) domain.Refund {
	return domain.Refund{
		Reference:     r.Reference,
		UserID:        r.UserID,
		Amount:        r.Amount,
		AuctionID:     r.AuctionID,
		Reason:        domain.RefundReason(r.Reason),
		Attempts:      r.Attempts,
		NextAttemptAt: r.NextAttemptAt.UTC(),
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt.UTC(),
		SettledAt:     utcPtr(r.SettledAt),
	}
}

func refundFromDomain(r domain.Refund) schema.PendingRefund {
	return schema.PendingRefund{
		Reference:     r.Reference,
		UserID:        r.UserID,
		Amount:        r.Amount,
		AuctionID:     r.AuctionID,
		Reason:        schema.RefundReason(r.Reason),
		Attempts:      r.Attempts,
		NextAttemptAt: r.NextAttemptAt,
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt,
		SettledAt:     r.SettledAt,
	}
}
