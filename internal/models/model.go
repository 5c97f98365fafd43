package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	StatusUpcoming  AuctionStatus = "upcoming"
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s AuctionStatus) IsTerminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// User represents a participant in the auction system.
// Owned externally; the core only reads it for display names.
type User struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Product is the sale item an auction is attached to.
// Owned externally; read-only from the core's perspective.
type Product struct {
	ProductID   string   `json:"product_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// Bid represents one accepted entry in an auction's ledger.
type Bid struct {
	BidID     string          `json:"bid_id"`
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// WinningBid is the snapshot recorded when an auction ends.
type WinningBid struct {
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// Auction is a time-boxed sale of one product resolved by competitive bidding.
//
// Bids is an append-only ledger in chronological order; amounts are strictly
// increasing because a bid is only accepted above CurrentPrice. CurrentPrice
// equals StartingPrice until the first bid, then always the last ledger entry.
type Auction struct {
	AuctionID     string          `json:"auction_id"`
	ProductID     string          `json:"product_id"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	Status        AuctionStatus   `json:"status"`
	Bids          []Bid           `json:"bids"`
	WinningBid    *WinningBid     `json:"winning_bid,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsActive reports whether the auction accepts bids at the given instant.
// Both the status field and the time window must agree; a stale active
// status past EndTime does not make the auction biddable.
func (a *Auction) IsActive(now time.Time) bool {
	return a.Status == StatusActive && !now.Before(a.StartTime) && !now.After(a.EndTime)
}

// HasEnded reports whether the auction is past bidding at the given instant.
func (a *Auction) HasEnded(now time.Time) bool {
	return now.After(a.EndTime) || a.Status.IsTerminal()
}

// HighestBid returns the ledger entry with the highest amount, ties broken
// by earliest timestamp, or nil if the ledger is empty. Under the strictly
// increasing ledger invariant this is always the last entry; the scan is the
// authoritative definition.
func (a *Auction) HighestBid() *Bid {
	if len(a.Bids) == 0 {
		return nil
	}
	highest := &a.Bids[0]
	for i := 1; i < len(a.Bids); i++ {
		b := &a.Bids[i]
		if b.Amount.GreaterThan(highest.Amount) ||
			(b.Amount.Equal(highest.Amount) && b.Timestamp.Before(highest.Timestamp)) {
			highest = b
		}
	}
	return highest
}
