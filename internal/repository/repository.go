package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"mazadi/internal/auctionerrors"
	model "mazadi/internal/models"
)

// AuctionDB defines the auction storage interface.
//
// AppendBidIfHigher and EndAuction are reserved for the auction service;
// they are the only writes to an auction after creation, which is what keeps
// the ledger append-only and strictly increasing.
type AuctionDB interface {
	CreateAuction(auction model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions() ([]model.Auction, error)
	ListActiveAuctions(now time.Time) ([]model.Auction, error)

	// AppendBidIfHigher atomically validates and commits a bid: the active
	// check and the amount > currentPrice check happen in the same critical
	// section as the append, so two racing bids can never both commit
	// against the same stale price. Returns the post-commit auction and the
	// previous top ledger entry (nil if this was the first bid).
	AppendBidIfHigher(auctionID string, bid model.Bid, now time.Time) (model.Auction, *model.Bid, error)

	// EndAuction moves the auction to ended, recording the winning bid if
	// any. Fails if the auction is already ended or cancelled.
	EndAuction(auctionID string, now time.Time) (model.Auction, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]*model.Auction // key: auctionID
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]*model.Auction),
	}
}

// CreateAuction stores a new auction record
func (r *MemoryRepo) CreateAuction(auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: duplicate id", auction.AuctionID)
	}

	stored := cloneAuction(&auction)
	r.auctions[auction.AuctionID] = &stored
	return nil
}

// GetAuction returns a snapshot of one auction
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return cloneAuction(a), nil
}

// ListAuctions returns all auctions ordered by ascending end time,
// soonest-ending first
func (r *MemoryRepo) ListAuctions() ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		auctions = append(auctions, cloneAuction(a))
	}
	sortByEndTime(auctions)
	return auctions, nil
}

// ListActiveAuctions returns auctions currently open for bidding, ordered by
// ascending end time
func (r *MemoryRepo) ListActiveAuctions(now time.Time) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0)
	for _, a := range r.auctions {
		if a.IsActive(now) {
			auctions = append(auctions, cloneAuction(a))
		}
	}
	sortByEndTime(auctions)
	return auctions, nil
}

// AppendBidIfHigher commits a bid under the repository lock. See AuctionDB.
func (r *MemoryRepo) AppendBidIfHigher(auctionID string, bid model.Bid, now time.Time) (model.Auction, *model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	if !a.IsActive(now) {
		return model.Auction{}, nil, fmt.Errorf("append bid to auction %s: %w", auctionID, auctionerrors.ErrAuctionNotActive)
	}

	if !bid.Amount.GreaterThan(a.CurrentPrice) {
		return model.Auction{}, nil, fmt.Errorf("append bid of %s to auction %s: %w",
			bid.Amount, auctionID, &auctionerrors.BidTooLowError{CurrentPrice: a.CurrentPrice})
	}

	var previous *model.Bid
	if len(a.Bids) > 0 {
		prev := a.Bids[len(a.Bids)-1]
		previous = &prev
	}

	a.Bids = append(a.Bids, bid)
	a.CurrentPrice = bid.Amount
	a.UpdatedAt = now

	return cloneAuction(a), previous, nil
}

// EndAuction transitions the auction to ended and records the winner
func (r *MemoryRepo) EndAuction(auctionID string, now time.Time) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("end auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	if a.Status.IsTerminal() {
		return model.Auction{}, fmt.Errorf("end auction %s in status %s: %w", auctionID, a.Status, auctionerrors.ErrInvalidTransition)
	}

	if highest := a.HighestBid(); highest != nil {
		a.WinningBid = &model.WinningBid{
			Bidder:    highest.Bidder,
			Amount:    highest.Amount,
			Timestamp: highest.Timestamp,
		}
	}
	a.Status = model.StatusEnded
	a.UpdatedAt = now

	return cloneAuction(a), nil
}

// cloneAuction copies an auction so callers never share the stored ledger slice
func cloneAuction(a *model.Auction) model.Auction {
	out := *a
	out.Bids = append([]model.Bid(nil), a.Bids...)
	if a.WinningBid != nil {
		wb := *a.WinningBid
		out.WinningBid = &wb
	}
	return out
}

func sortByEndTime(auctions []model.Auction) {
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].EndTime.Before(auctions[j].EndTime)
	})
}
