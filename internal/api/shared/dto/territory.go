package dto

import (
	"time"

	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// TerritoryResponse represents a territory in API responses
type TerritoryResponse struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Sovereignty      domain.Sovereignty `json:"sovereignty"`
	RulerID          *string            `json:"ruler_id"`
	RulerSince       *time.Time         `json:"ruler_since"`
	ProtectionEndsAt *time.Time         `json:"protection_ends_at"`
	BasePrice        int64              `json:"base_price"`
	CurrentAuctionID *string            `json:"current_auction_id"`
	Version          int64              `json:"version"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// TerritoryListResponse represents a paginated list of territories
type TerritoryListResponse struct {
	Territories []TerritoryResponse `json:"items"`
	Offset      *uint64             `json:"offset,omitempty"` // Offset for the next page
	Total       uint64              `json:"total"`
}

// BuyNowQuoteResponse represents the authoritative instant purchase price of a territory
type BuyNowQuoteResponse struct {
	TerritoryID      string     `json:"territory_id"`
	Price            int64      `json:"price"`
	Available        bool       `json:"available"`
	ProtectedUntil   *time.Time `json:"protected_until,omitempty"`
	AuctionID        *string    `json:"auction_id,omitempty"`
	AuctionVersion   *int64     `json:"auction_version,omitempty"`
	TerritoryVersion int64      `json:"territory_version"`
}

// MapTerritoryToDTO maps a domain.Territory to TerritoryResponse
func MapTerritoryToDTO(t *domain.Territory) *TerritoryResponse {
	return &TerritoryResponse{
		ID:               t.ID,
		Name:             t.Name,
		Sovereignty:      t.Sovereignty,
		RulerID:          t.RulerID,
		RulerSince:       t.RulerSince,
		ProtectionEndsAt: t.ProtectionEndsAt,
		BasePrice:        t.BasePrice,
		CurrentAuctionID: t.CurrentAuctionID,
		Version:          t.Version,
		UpdatedAt:        t.UpdatedAt,
	}
}

// MapQuoteToDTO maps an auction.Quote to BuyNowQuoteResponse
func MapQuoteToDTO(q *auction.Quote) *BuyNowQuoteResponse {
	return &BuyNowQuoteResponse{
		TerritoryID:      q.TerritoryID,
		Price:            q.Price,
		Available:        q.Available,
		ProtectedUntil:   q.ProtectedUntil,
		AuctionID:        q.AuctionID,
		AuctionVersion:   q.AuctionVersion,
		TerritoryVersion: q.TerritoryVersion,
	}
}
