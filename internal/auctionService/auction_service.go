package auction

import (
	"fmt"
	"time"

	"mazadi/internal/auctionerrors"
	"mazadi/internal/directory"
	"mazadi/internal/models"
	"mazadi/internal/repository"
	"mazadi/utils"

	"github.com/shopspring/decimal"
)

// Broadcaster receives live-update hooks from the auction service. The
// WebSocket hub implements it; tests substitute a mock. Calls are
// fire-and-forget: the service never waits on delivery.
type Broadcaster interface {
	// BroadcastAuctionUpdate pushes the new authoritative state to every
	// connection subscribed to the auction.
	BroadcastAuctionUpdate(auction models.Auction)
	// NotifyOutbid tells connections of the given user that a later bid
	// exceeded theirs.
	NotifyOutbid(userID, auctionID string, newAmount decimal.Decimal)
	// NotifyAuctionWon tells connections of the given user that they won.
	NotifyAuctionWon(userID, auctionID, auctionName string)
}

// NoopBroadcaster discards all hooks.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastAuctionUpdate(models.Auction)        {}
func (NoopBroadcaster) NotifyOutbid(string, string, decimal.Decimal) {}
func (NoopBroadcaster) NotifyAuctionWon(string, string, string)      {}

// AuctionService owns all auction state changes: creation, the bid
// transaction, and lifecycle transitions. It is the only caller of the
// store's write operations.
type AuctionService struct {
	repo        repository.AuctionDB
	products    directory.ProductDirectory
	broadcaster Broadcaster
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, products directory.ProductDirectory, broadcaster Broadcaster) *AuctionService {
	return &AuctionService{
		repo:        repo,
		products:    products,
		broadcaster: broadcaster,
	}
}

// CreateAuction validates and stores a new auction for an existing product.
// Initial status is active when the start time has already arrived,
// upcoming otherwise.
func (s *AuctionService) CreateAuction(productID string, startingPrice decimal.Decimal, startTime, endTime time.Time) (models.Auction, error) {
	if productID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing product ID", auctionerrors.ErrInvalidAuction)
	}
	if !startingPrice.IsPositive() {
		return models.Auction{}, fmt.Errorf("service: %w - starting price must be positive", auctionerrors.ErrInvalidAuction)
	}

	now := time.Now().UTC()
	if startTime.Before(now) {
		return models.Auction{}, fmt.Errorf("service: %w - start time must not be in the past", auctionerrors.ErrInvalidAuction)
	}
	if !endTime.After(startTime) {
		return models.Auction{}, fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrInvalidAuction)
	}

	if _, err := s.products.GetProduct(productID); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to resolve product %s: %w", productID, err)
	}

	status := models.StatusUpcoming
	if !startTime.After(now) {
		status = models.StatusActive
	}

	auction := models.Auction{
		AuctionID:     utils.GenerateID(),
		ProductID:     productID,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		Status:        status,
		Bids:          []models.Bid{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateAuction(auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for product %s: %w", productID, err)
	}
	return auction, nil
}

// PlaceBid validates and commits a bid, then fires the broadcast hooks.
// Returns the new current price.
//
// The commit itself is the store's atomic conditional append, so two bids
// racing on the same auction serialize there: whichever commits second must
// beat the first one's price or be rejected.
func (s *AuctionService) PlaceBid(auctionID, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if auctionID == "" || userID == "" {
		return decimal.Zero, fmt.Errorf("service: %w - missing auctionID or userID", auctionerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	now := time.Now().UTC()
	bid := models.Bid{
		BidID:     utils.GenerateID(),
		Bidder:    userID,
		Amount:    amount,
		Timestamp: now,
	}

	updated, previous, err := s.repo.AppendBidIfHigher(auctionID, bid, now)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service: failed to place bid on auction %s by user %s: %w", auctionID, userID, err)
	}

	s.broadcaster.BroadcastAuctionUpdate(updated)

	// The previous ledger entry is the previous highest bid: amounts are
	// strictly increasing, so the last entry is always the maximum.
	if previous != nil {
		s.broadcaster.NotifyOutbid(previous.Bidder, auctionID, amount)
	}

	return updated.CurrentPrice, nil
}

// EndAuction closes the auction, records the winning bid if any, and fires
// the broadcast hooks. Fails on auctions that are already ended or cancelled.
func (s *AuctionService) EndAuction(auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	now := time.Now().UTC()
	auction, err := s.repo.EndAuction(auctionID, now)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to end auction %s: %w", auctionID, err)
	}

	s.broadcaster.BroadcastAuctionUpdate(auction)

	if auction.WinningBid != nil {
		name := ""
		if product, perr := s.products.GetProduct(auction.ProductID); perr == nil {
			name = product.Name
		} else {
			utils.Warn("end auction: product lookup failed", map[string]any{
				"auction_id": auctionID,
				"product_id": auction.ProductID,
				"error":      perr.Error(),
			})
		}
		s.broadcaster.NotifyAuctionWon(auction.WinningBid.Bidder, auctionID, name)
	}

	return auction, nil
}

// GetAuction returns one auction by id
func (s *AuctionService) GetAuction(auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	auction, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// ListAuctions returns all auctions, soonest-ending first
func (s *AuctionService) ListAuctions() ([]models.Auction, error) {
	auctions, err := s.repo.ListAuctions()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// ListActiveAuctions returns currently biddable auctions, soonest-ending first
func (s *AuctionService) ListActiveAuctions() ([]models.Auction, error) {
	auctions, err := s.repo.ListActiveAuctions(time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active auctions: %w", err)
	}
	return auctions, nil
}
