package ws

import (
	"fmt"
	"sync"

	"mazadi/internal/directory"
	"mazadi/internal/models"
	"mazadi/utils"

	"github.com/shopspring/decimal"
)

// MessageWriter is the slice of a websocket connection the hub needs.
// *websocket.Conn satisfies it; tests use in-memory fakes.
type MessageWriter interface {
	WriteJSON(v any) error
	Close() error
}

// AuctionSource provides the read path for subscribe-time snapshots.
type AuctionSource interface {
	GetAuction(auctionID string) (models.Auction, error)
}

// client pairs a connection with a write lock so frames to one connection
// never interleave.
type client struct {
	id   string
	conn MessageWriter
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans auction state out to subscribed connections and delivers
// targeted notifications. It implements auction.Broadcaster.
//
// All sends are best-effort: a failed write drops that connection and never
// propagates, so one broken socket cannot stall the fan-out for the rest.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client // key: connID
	registry *Registry
	source   AuctionSource
	users    directory.UserDirectory
}

// NewHub creates a hub reading snapshots from source and resolving bidder
// display names through users
func NewHub(source AuctionSource, users directory.UserDirectory) *Hub {
	return &Hub{
		clients:  make(map[string]*client),
		registry: NewRegistry(),
		source:   source,
		users:    users,
	}
}

// Registry exposes the subscription registry, mainly for tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Register adds a connection, optionally pre-bound to a user identity, and
// sends the connection handshake. Returns the connection id.
func (h *Hub) Register(conn MessageWriter, userID string) string {
	connID := utils.GenerateID()
	c := &client{id: connID, conn: conn}

	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()

	if userID != "" {
		h.registry.BindUser(connID, userID)
	}

	if err := c.send(ConnectionMessage{
		Type:      TypeConnection,
		Connected: true,
		Message:   "Connected to Mazadi auction server",
	}); err != nil {
		utils.Warn("ws: handshake send failed", map[string]any{"conn_id": connID, "error": err.Error()})
	}

	utils.Info("ws: client connected", map[string]any{"conn_id": connID})
	return connID
}

// Unregister removes a connection and its subscription.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	delete(h.clients, connID)
	h.mu.Unlock()

	h.registry.Drop(connID)
	if ok {
		_ = c.conn.Close()
		utils.Info("ws: client disconnected", map[string]any{"conn_id": connID})
	}
}

// Subscribe rebinds the connection to auctionID and replies with a fresh
// auction_data snapshot, which is how a reconnecting client resynchronizes.
func (h *Hub) Subscribe(connID, auctionID string) {
	if auctionID == "" {
		utils.Warn("ws: subscribe without auction id", map[string]any{"conn_id": connID})
		return
	}

	h.registry.Subscribe(connID, auctionID)
	utils.Info("ws: client subscribed", map[string]any{"conn_id": connID, "auction_id": auctionID})

	auction, err := h.source.GetAuction(auctionID)
	if err != nil {
		utils.Warn("ws: snapshot for unknown auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	h.sendTo(connID, AuctionMessage{Type: TypeAuctionData, Auction: h.snapshot(auction)})
}

// BindUser records the authenticated identity for a connection.
func (h *Hub) BindUser(connID, userID string) {
	h.registry.BindUser(connID, userID)
}

// BroadcastAuctionUpdate pushes the auction's new state to every connection
// subscribed to it. Implements auction.Broadcaster.
func (h *Hub) BroadcastAuctionUpdate(auction models.Auction) {
	msg := AuctionMessage{Type: TypeAuctionState, Auction: h.snapshot(auction)}
	for _, connID := range h.registry.SubscribersOf(auction.AuctionID) {
		h.sendTo(connID, msg)
	}
}

// NotifyOutbid delivers a targeted outbid notification to every connection
// of the given user. Implements auction.Broadcaster.
func (h *Hub) NotifyOutbid(userID, auctionID string, newAmount decimal.Decimal) {
	msg := OutbidMessage{
		Type:         TypeOutbid,
		AuctionID:    auctionID,
		NewBidAmount: newAmount,
		Message:      fmt.Sprintf("You have been outbid! The current bid is now $%s", newAmount),
	}
	for _, connID := range h.registry.ConnsOfUser(userID) {
		h.sendTo(connID, msg)
	}
}

// NotifyAuctionWon delivers the auction_won notification to every connection
// of the winning bidder. Implements auction.Broadcaster.
func (h *Hub) NotifyAuctionWon(userID, auctionID, auctionName string) {
	msg := AuctionWonMessage{
		Type:        TypeAuctionWon,
		AuctionID:   auctionID,
		AuctionName: auctionName,
		Message:     fmt.Sprintf("Congratulations! You won the auction for %s", auctionName),
	}
	for _, connID := range h.registry.ConnsOfUser(userID) {
		h.sendTo(connID, msg)
	}
}

// sendTo writes one message to one connection; on failure the connection is
// dropped.
func (h *Hub) sendTo(connID string, v any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if err := c.send(v); err != nil {
		utils.Warn("ws: send failed, dropping connection", map[string]any{"conn_id": connID, "error": err.Error()})
		h.Unregister(connID)
	}
}

// snapshot builds the wire view of an auction, resolving bidder ids to
// display names. A failed lookup falls back to the raw id rather than
// blocking the push.
func (h *Hub) snapshot(auction models.Auction) AuctionSnapshot {
	names := make(map[string]string, len(auction.Bids))
	bids := make([]BidView, 0, len(auction.Bids))
	for _, b := range auction.Bids {
		name, ok := names[b.Bidder]
		if !ok {
			name = b.Bidder
			if user, err := h.users.GetUser(b.Bidder); err == nil {
				name = user.Name
			}
			names[b.Bidder] = name
		}
		bids = append(bids, BidView{User: name, Amount: b.Amount, Timestamp: b.Timestamp})
	}

	return AuctionSnapshot{
		ID:           auction.AuctionID,
		CurrentPrice: auction.CurrentPrice,
		EndTime:      auction.EndTime,
		Bids:         bids,
		Status:       string(auction.Status),
	}
}
