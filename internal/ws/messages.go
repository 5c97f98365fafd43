package ws

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message types carried in the "type" discriminator of every frame.
const (
	TypeConnection   = "connection"
	TypeSubscribe    = "subscribe"
	TypeIdentify     = "identify"
	TypeAuctionData  = "auction_data"
	TypeAuctionState = "auction_update"
	TypeOutbid       = "outbid_notification"
	TypeAuctionWon   = "auction_won"
)

// ClientMessage is any frame sent by a client. Unknown types and frames
// that fail to parse are logged and ignored; the connection stays open.
type ClientMessage struct {
	Type      string `json:"type"`
	AuctionID string `json:"auctionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// ConnectionMessage is the handshake pushed right after the upgrade.
type ConnectionMessage struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// BidView is a ledger entry as shown to viewers: bidder resolved to a
// display name.
type BidView struct {
	User      string          `json:"user"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// AuctionSnapshot is the full push payload. Every push is a complete
// replacement of this field set, never a delta, so clients stay correct
// even when independent pushes arrive out of order.
type AuctionSnapshot struct {
	ID           string          `json:"id"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	EndTime      time.Time       `json:"endTime"`
	Bids         []BidView       `json:"bids"`
	Status       string          `json:"status"`
}

// AuctionMessage carries a snapshot, as auction_data (subscribe reply)
// or auction_update (change push).
type AuctionMessage struct {
	Type    string          `json:"type"`
	Auction AuctionSnapshot `json:"auction"`
}

// OutbidMessage is the targeted push to the previous highest bidder.
type OutbidMessage struct {
	Type         string          `json:"type"`
	AuctionID    string          `json:"auctionId"`
	NewBidAmount decimal.Decimal `json:"newBidAmount"`
	Message      string          `json:"message"`
}

// AuctionWonMessage is the targeted push to the winning bidder at close.
type AuctionWonMessage struct {
	Type        string `json:"type"`
	AuctionID   string `json:"auctionId"`
	AuctionName string `json:"auctionName"`
	Message     string `json:"message"`
}
