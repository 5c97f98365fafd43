package server

import (
	auction "mazadi/internal/auctionService"
	"mazadi/internal/ws"
	handler "mazadi/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application.
//
// authMiddleware guards the mutating auction routes; session issuance and
// validation live outside this core, so callers inject whatever the auth
// layer provides (nil means no guard, used in tests).
func SetupRouter(auctionService *auction.AuctionService, wsHandler *ws.Handler, authMiddleware gin.HandlerFunc) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)

	if authMiddleware == nil {
		authMiddleware = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api/auction")
	{
		api.GET("/all-auctions", auctionHandler.GetAllAuctionsHandler)
		api.GET("/active-auctions", auctionHandler.GetActiveAuctionsHandler)
		api.GET("/auction/:auction_id", auctionHandler.GetAuctionByIDHandler)
		api.POST("/create-auction", authMiddleware, auctionHandler.CreateAuctionHandler)
		api.POST("/place-bid", authMiddleware, auctionHandler.PlaceBidHandler)
		api.POST("/end-auction/:auction_id", authMiddleware, auctionHandler.EndAuctionHandler)
	}

	if wsHandler != nil {
		router.GET("/ws", wsHandler.Serve)
	}

	return router
}
