package executor

import (
	"context"

	"github.com/feral-file/ff-sovereignty/internal/api/shared/constants"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/dto"
	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/guard"
	"github.com/feral-file/ff-sovereignty/internal/store"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

// Executor is the interface for the API executor
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// GetTerritory retrieves a single territory by its ID
	GetTerritory(ctx context.Context, id string) (*dto.TerritoryResponse, error)

	// ListTerritories retrieves territories with optional filters
	ListTerritories(ctx context.Context, rulerID *string, sovereignty *domain.Sovereignty, limit *int, offset *uint64) (*dto.TerritoryListResponse, error)

	// QuoteBuyNow returns the authoritative instant purchase price of a territory
	QuoteBuyNow(ctx context.Context, territoryID string) (*dto.BuyNowQuoteResponse, error)

	// BuyNow buys a territory outright through the admission guard
	BuyNow(ctx context.Context, territoryID string, actor auction.Actor, req dto.BuyNowRequest) (*dto.TerritoryResponse, error)

	// GetAuction retrieves a single auction by its ID
	GetAuction(ctx context.Context, id string) (*dto.AuctionResponse, error)

	// ListBids retrieves the bids of an auction, newest first
	ListBids(ctx context.Context, auctionID string, limit *int, offset *uint64) (*dto.BidListResponse, error)

	// CreateAuction opens an auction on a territory
	CreateAuction(ctx context.Context, territoryID string, actor auction.Actor, req dto.CreateAuctionRequest) (*dto.AuctionResponse, error)

	// PlaceBid places a bid through the admission guard
	PlaceBid(ctx context.Context, auctionID string, actor auction.Actor, req dto.PlaceBidRequest) (*dto.AuctionResponse, error)

	// EndAuction settles an auction; forcing an open auction closed is admin only
	EndAuction(ctx context.Context, auctionID string, actor auction.Actor, force bool) (*dto.AuctionResponse, error)

	// CancelAuction cancels an auction
	CancelAuction(ctx context.Context, auctionID string, actor auction.Actor, reason string) (*dto.AuctionResponse, error)

	// GetChanges retrieves committed changes after an anchor, in ascending cursor order
	GetChanges(ctx context.Context, subjectType *schema.SubjectType, subjectID *string, anchor *uint64, limit *int) (*dto.ChangeListResponse, error)
}

type executor struct {
	engine auction.Engine
	guard  guard.Guard
}

// NewExecutor creates an executor over the auction engine and its admission guard
func NewExecutor(engine auction.Engine, g guard.Guard) Executor {
	return &executor{engine: engine, guard: g}
}

func (e *executor) GetTerritory(ctx context.Context, id string) (*dto.TerritoryResponse, error) {
	territory, err := e.engine.GetTerritory(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.MapTerritoryToDTO(territory), nil
}

func (e *executor) ListTerritories(ctx context.Context, rulerID *string, sovereignty *domain.Sovereignty, limit *int, offset *uint64) (*dto.TerritoryListResponse, error) {
	// Use defaults if not provided
	pageLimit := constants.DEFAULT_TERRITORIES_LIMIT
	if limit != nil {
		pageLimit = *limit
	}
	pageOffset := constants.DEFAULT_OFFSET
	if offset != nil {
		pageOffset = *offset
	}

	territories, total, err := e.engine.ListTerritories(ctx, store.TerritoryQueryFilter{
		RulerID:     rulerID,
		Sovereignty: sovereignty,
		Limit:       pageLimit,
		Offset:      pageOffset,
	})
	if err != nil {
		return nil, err
	}

	// Map to DTOs
	items := make([]dto.TerritoryResponse, len(territories))
	for i := range territories {
		items[i] = *dto.MapTerritoryToDTO(&territories[i])
	}

	return &dto.TerritoryListResponse{
		Territories: items,
		Offset:      nextOffset(pageOffset, len(items), total),
		Total:       total,
	}, nil
}

func (e *executor) QuoteBuyNow(ctx context.Context, territoryID string) (*dto.BuyNowQuoteResponse, error) {
	quote, err := e.engine.QuoteBuyNow(ctx, territoryID)
	if err != nil {
		return nil, err
	}
	return dto.MapQuoteToDTO(quote), nil
}

func (e *executor) BuyNow(ctx context.Context, territoryID string, actor auction.Actor, req dto.BuyNowRequest) (*dto.TerritoryResponse, error) {
	territory, err := e.guard.BuyNow(ctx, guard.BuyNowRequest{
		TerritoryID:     territoryID,
		BuyerID:         actor.UserID,
		ObservedVersion: req.ObservedVersion,
		MaxPrice:        req.MaxPrice,
	})
	if err != nil {
		return nil, err
	}
	return dto.MapTerritoryToDTO(territory), nil
}

func (e *executor) GetAuction(ctx context.Context, id string) (*dto.AuctionResponse, error) {
	a, err := e.engine.GetAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.MapAuctionToDTO(a), nil
}

func (e *executor) ListBids(ctx context.Context, auctionID string, limit *int, offset *uint64) (*dto.BidListResponse, error) {
	pageLimit := constants.DEFAULT_BIDS_LIMIT
	if limit != nil {
		pageLimit = *limit
	}
	pageOffset := constants.DEFAULT_OFFSET
	if offset != nil {
		pageOffset = *offset
	}

	bids, total, err := e.engine.ListBids(ctx, auctionID, pageLimit, pageOffset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.BidResponse, len(bids))
	for i := range bids {
		items[i] = *dto.MapBidToDTO(&bids[i])
	}

	return &dto.BidListResponse{
		Bids:   items,
		Offset: nextOffset(pageOffset, len(items), total),
		Total:  total,
	}, nil
}

func (e *executor) CreateAuction(ctx context.Context, territoryID string, actor auction.Actor, req dto.CreateAuctionRequest) (*dto.AuctionResponse, error) {
	a, err := e.engine.CreateAuction(ctx, territoryID, actor, auction.CreateAuctionOptions{
		Type:           req.Type,
		ProtectionDays: req.ProtectionDays,
		StartingBid:    req.StartingBid,
		Duration:       req.Duration(),
	})
	if err != nil {
		return nil, err
	}
	return dto.MapAuctionToDTO(a), nil
}

func (e *executor) PlaceBid(ctx context.Context, auctionID string, actor auction.Actor, req dto.PlaceBidRequest) (*dto.AuctionResponse, error) {
	a, err := e.guard.PlaceBid(ctx, guard.BidRequest{
		AuctionID:       auctionID,
		BidderID:        actor.UserID,
		Amount:          req.Amount,
		ObservedVersion: req.ObservedVersion,
	})
	if err != nil {
		return nil, err
	}
	return dto.MapAuctionToDTO(a), nil
}

func (e *executor) EndAuction(ctx context.Context, auctionID string, actor auction.Actor, force bool) (*dto.AuctionResponse, error) {
	if force && !actor.Admin {
		return nil, domain.NewForbidden("only an admin can end an auction before its end time")
	}

	a, err := e.engine.EndAuction(ctx, auctionID, force)
	if err != nil {
		return nil, err
	}
	return dto.MapAuctionToDTO(a), nil
}

func (e *executor) CancelAuction(ctx context.Context, auctionID string, actor auction.Actor, reason string) (*dto.AuctionResponse, error) {
	a, err := e.engine.CancelAuction(ctx, auctionID, actor, reason)
	if err != nil {
		return nil, err
	}
	return dto.MapAuctionToDTO(a), nil
}

func (e *executor) GetChanges(ctx context.Context, subjectType *schema.SubjectType, subjectID *string, anchor *uint64, limit *int) (*dto.ChangeListResponse, error) {
	pageLimit := constants.DEFAULT_CHANGES_LIMIT
	if limit != nil {
		pageLimit = *limit
	}
	var since uint64
	if anchor != nil {
		since = *anchor
	}

	changes, err := e.engine.GetChanges(ctx, store.ChangesQueryFilter{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Since:       since,
		Limit:       pageLimit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.ChangeResponse, len(changes))
	for i := range changes {
		items[i] = *dto.MapChangeToDTO(&changes[i])
	}

	response := &dto.ChangeListResponse{Changes: items}
	// A full page means there may be more after the last cursor
	if len(items) > 0 && len(items) == pageLimit {
		next := uint64(items[len(items)-1].Cursor) //nolint:gosec,G115
		response.NextAnchor = &next
	}
	return response, nil
}

// nextOffset returns the offset of the next page, or nil on the last page
func nextOffset(offset uint64, count int, total uint64) *uint64 {
	next := offset + uint64(count) //nolint:gosec,G115
	if count == 0 || next >= total {
		return nil
	}
	return &next
}
