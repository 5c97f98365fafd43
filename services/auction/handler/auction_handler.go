package handler

import (
	"net/http"
	"time"

	model "mazadi/internal/models"
	"mazadi/services/auction/helpers"
	"mazadi/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateAuction(productID string, startingPrice decimal.Decimal, startTime, endTime time.Time) (model.Auction, error)
	PlaceBid(auctionID, userID string, amount decimal.Decimal) (decimal.Decimal, error)
	EndAuction(auctionID string) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions() ([]model.Auction, error)
	ListActiveAuctions() ([]model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// GetAllAuctionsHandler handles GET /api/auction/all-auctions
func (h *AuctionHandler) GetAllAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListAuctions()
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Error("GetAllAuctionsHandler: failed to list auctions", map[string]any{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// GetActiveAuctionsHandler handles GET /api/auction/active-auctions
func (h *AuctionHandler) GetActiveAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListActiveAuctions()
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Error("GetActiveAuctionsHandler: failed to list active auctions", map[string]any{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// GetAuctionByIDHandler handles GET /api/auction/auction/:auction_id
func (h *AuctionHandler) GetAuctionByIDHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("GetAuctionByIDHandler: failed to get auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// CreateAuctionHandler handles POST /api/auction/create-auction
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(req.ProductID, req.StartingPrice, req.StartTime, req.EndTime)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("CreateAuctionHandler: failed to create auction", map[string]any{
			"product_id": req.ProductID,
			"error":      err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": "Auction created successfully",
		"auction": auction,
	})
	helpers.LogSuccess("CreateAuctionHandler", "auction created", map[string]any{
		"auction_id": auction.AuctionID,
		"product_id": auction.ProductID,
	})
}

// PlaceBidHandler handles POST /api/auction/place-bid
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	currentPrice, err := h.service.PlaceBid(req.AuctionID, req.UserID, req.BidAmount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"auction_id": req.AuctionID,
			"user_id":    req.UserID,
			"amount":     req.BidAmount.String(),
			"error":      err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      "Bid placed successfully",
		"currentPrice": currentPrice,
	})
	helpers.LogSuccess("PlaceBidHandler", "bid placed", map[string]any{
		"auction_id": req.AuctionID,
		"user_id":    req.UserID,
		"amount":     req.BidAmount.String(),
	})
}

// EndAuctionHandler handles POST /api/auction/end-auction/:auction_id
func (h *AuctionHandler) EndAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.EndAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("EndAuctionHandler: failed to end auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": "Auction ended successfully",
		"auction": auction,
	})
	helpers.LogSuccess("EndAuctionHandler", "auction ended", map[string]any{
		"auction_id": auction.AuctionID,
		"status":     string(auction.Status),
	})
}
