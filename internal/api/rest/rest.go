package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-sovereignty/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	auth := middleware.Auth(authCfg)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Territory endpoints (public read access)
		v1.GET("/territories", handler.ListTerritories)
		v1.GET("/territories/:id", handler.GetTerritory)
		v1.GET("/territories/:id/buy-now", handler.QuoteBuyNow)

		// Territory writes (requires authentication)
		v1.POST("/territories/:id/buy-now", auth, handler.BuyNow)
		v1.POST("/territories/:id/auctions", auth, handler.CreateAuction)

		// Auction endpoints (public read access)
		v1.GET("/auctions/:id", handler.GetAuction)
		v1.GET("/auctions/:id/bids", handler.ListBids)

		// Auction writes (requires authentication)
		v1.POST("/auctions/:id/bids", auth, handler.PlaceBid)
		v1.POST("/auctions/:id/end", auth, handler.EndAuction)
		v1.POST("/auctions/:id/cancel", auth, handler.CancelAuction)

		// Changes endpoint (public read access)
		v1.GET("/changes", handler.GetChanges)
	}
}
