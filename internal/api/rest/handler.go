package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-sovereignty/internal/api/middleware"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/dto"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/executor"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListTerritories retrieves territories with optional filters
	// GET /api/v1/territories?ruler_id=<user>&sovereignty=<state>&limit=<limit>&offset=<offset>
	ListTerritories(c *gin.Context)

	// GetTerritory retrieves a single territory by its ID
	// GET /api/v1/territories/:id
	GetTerritory(c *gin.Context)

	// QuoteBuyNow returns the authoritative instant purchase price
	// GET /api/v1/territories/:id/buy-now
	QuoteBuyNow(c *gin.Context)

	// BuyNow buys the territory outright (requires authentication)
	// POST /api/v1/territories/:id/buy-now
	BuyNow(c *gin.Context)

	// CreateAuction opens an auction on the territory (requires authentication)
	// POST /api/v1/territories/:id/auctions
	CreateAuction(c *gin.Context)

	// GetAuction retrieves a single auction by its ID
	// GET /api/v1/auctions/:id
	GetAuction(c *gin.Context)

	// ListBids retrieves the bids of an auction, newest first
	// GET /api/v1/auctions/:id/bids?limit=<limit>&offset=<offset>
	ListBids(c *gin.Context)

	// PlaceBid places a bid (requires authentication)
	// POST /api/v1/auctions/:id/bids
	PlaceBid(c *gin.Context)

	// EndAuction settles an auction (requires authentication; force is admin only)
	// POST /api/v1/auctions/:id/end
	EndAuction(c *gin.Context)

	// CancelAuction cancels an auction (requires authentication)
	// POST /api/v1/auctions/:id/cancel
	CancelAuction(c *gin.Context)

	// GetChanges retrieves committed changes in ascending cursor order
	// GET /api/v1/changes?subject_type=<type>&subject_id=<id>&anchor=<cursor>&limit=<limit>
	GetChanges(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{
		executor: exec,
	}
}

// ListTerritories retrieves territories with optional filters
func (h *handler) ListTerritories(c *gin.Context) {
	queryParams, err := ParseListTerritoriesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := queryParams.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	rulerID, sovereignty := queryParams.Filters()
	response, err := h.executor.ListTerritories(
		c.Request.Context(),
		rulerID,
		sovereignty,
		&queryParams.Limit,
		&queryParams.Offset,
	)
	if err != nil {
		respondError(c, err, "Failed to list territories")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetTerritory retrieves a single territory by its ID
func (h *handler) GetTerritory(c *gin.Context) {
	territoryID := c.Param("id")
	if territoryID == "" {
		respondBadRequest(c, "Territory ID is required")
		return
	}

	response, err := h.executor.GetTerritory(c.Request.Context(), territoryID)
	if err != nil {
		respondError(c, err, "Failed to get territory")
		return
	}

	c.JSON(http.StatusOK, response)
}

// QuoteBuyNow returns the authoritative instant purchase price
func (h *handler) QuoteBuyNow(c *gin.Context) {
	territoryID := c.Param("id")
	if territoryID == "" {
		respondBadRequest(c, "Territory ID is required")
		return
	}

	response, err := h.executor.QuoteBuyNow(c.Request.Context(), territoryID)
	if err != nil {
		respondError(c, err, "Failed to quote territory")
		return
	}

	c.JSON(http.StatusOK, response)
}

// BuyNow buys the territory outright
func (h *handler) BuyNow(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req dto.BuyNowRequest
	// The body is optional
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	response, err := h.executor.BuyNow(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		respondError(c, err, "Failed to buy territory")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CreateAuction opens an auction on the territory
func (h *handler) CreateAuction(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req dto.CreateAuctionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	response, err := h.executor.CreateAuction(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		respondError(c, err, "Failed to create auction")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetAuction retrieves a single auction by its ID
func (h *handler) GetAuction(c *gin.Context) {
	auctionID := c.Param("id")
	if auctionID == "" {
		respondBadRequest(c, "Auction ID is required")
		return
	}

	response, err := h.executor.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, err, "Failed to get auction")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListBids retrieves the bids of an auction
func (h *handler) ListBids(c *gin.Context) {
	queryParams, err := ParseListBidsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	response, err := h.executor.ListBids(c.Request.Context(), c.Param("id"), &queryParams.Limit, &queryParams.Offset)
	if err != nil {
		respondError(c, err, "Failed to list bids")
		return
	}

	c.JSON(http.StatusOK, response)
}

// PlaceBid places a bid through the admission guard
func (h *handler) PlaceBid(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req dto.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	response, err := h.executor.PlaceBid(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		respondError(c, err, "Failed to place bid")
		return
	}

	c.JSON(http.StatusOK, response)
}

// EndAuction settles an auction
func (h *handler) EndAuction(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req dto.EndAuctionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}

	response, err := h.executor.EndAuction(c.Request.Context(), c.Param("id"), actor, req.Force)
	if err != nil {
		respondError(c, err, "Failed to end auction")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CancelAuction cancels an auction
func (h *handler) CancelAuction(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req dto.CancelAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	response, err := h.executor.CancelAuction(c.Request.Context(), c.Param("id"), actor, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to cancel auction")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetChanges retrieves committed changes after an anchor
func (h *handler) GetChanges(c *gin.Context) {
	queryParams, err := ParseGetChangesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := queryParams.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	subjectType, subjectID := queryParams.Filters()
	response, err := h.executor.GetChanges(
		c.Request.Context(),
		subjectType,
		subjectID,
		queryParams.Anchor,
		&queryParams.Limit,
	)
	if err != nil {
		respondError(c, err, "Failed to get changes")
		return
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-sovereignty-api",
	})
}
