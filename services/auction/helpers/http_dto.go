package helpers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs, field names matching the public API contract
type CreateAuctionRequest struct {
	ProductID     string          `json:"productId" binding:"required"`
	StartingPrice decimal.Decimal `json:"startingPrice" binding:"required"`
	StartTime     time.Time       `json:"startTime" binding:"required"`
	EndTime       time.Time       `json:"endTime" binding:"required"`
}

type PlaceBidRequest struct {
	AuctionID string          `json:"auctionId" binding:"required"`
	UserID    string          `json:"userId" binding:"required"`
	BidAmount decimal.Decimal `json:"bidAmount" binding:"required"`
}
