// Package client maintains a live local mirror of server auction state over
// the websocket channel: it reconciles pushes, reconnects on drop, and
// derives the countdown/hot-auction view state locally.
package client

import (
	"encoding/json"
	"sync"
	"time"

	"mazadi/internal/ws"
	"mazadi/utils"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	// DefaultRetryInterval is the flat delay between reconnect attempts.
	DefaultRetryInterval = 5 * time.Second
	// DefaultHotBidThreshold is the bid count at which an auction is shown
	// as hot. Purely a local heuristic, never sourced from the server.
	DefaultHotBidThreshold = 10
)

// AuctionView is the local mirror of one auction plus derived display state.
type AuctionView struct {
	ID           string
	CurrentPrice decimal.Decimal
	EndTime      time.Time
	Bids         []ws.BidView
	Status       string

	// Ended is derived from EndTime against the local clock so the
	// countdown can expire even without a fresh push.
	Ended bool
	// Hot is set once the bid count crosses the threshold.
	Hot bool
}

// AgentConfig configures a sync agent.
type AgentConfig struct {
	// URL of the websocket endpoint, e.g. "ws://host:8000/ws".
	URL string
	// UserID, when set, is bound to the connection after each (re)connect
	// so targeted notifications reach this agent.
	UserID string
	// RetryInterval between reconnect attempts; DefaultRetryInterval if zero.
	RetryInterval time.Duration
	// HotBidThreshold for the hot heuristic; DefaultHotBidThreshold if zero.
	HotBidThreshold int
}

// Agent is the browser-side counterpart of the broadcast channel.
//
// Subscriptions are not durable: after a reconnect the agent re-sends the
// last subscribe, and the server answers with a fresh snapshot. That
// snapshot-on-subscribe is the resynchronization mechanism; there is no
// message replay.
type Agent struct {
	cfg AgentConfig

	mu         sync.RWMutex
	conn       *websocket.Conn
	connected  bool
	subscribed string // latest subscribe target, rebinds on reconnect
	auctions   map[string]*AuctionView

	// writeMu serializes frames onto the connection: gorilla allows at most
	// one concurrent writer, and Subscribe callers race the reconnect loop.
	writeMu sync.Mutex

	notifications []Notification
	seen          map[string]bool // dedup keys of delivered notifications
	read          map[string]bool // read markers, kept across ClearNotifications

	listeners map[string][]listener
	nextLID   int

	stop chan struct{}
	done chan struct{}
	wake chan struct{} // skips the retry wait on Stop
}

type listener struct {
	id int
	fn func(data []byte)
}

// NewAgent creates a sync agent; call Start to connect.
func NewAgent(cfg AgentConfig) *Agent {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.HotBidThreshold <= 0 {
		cfg.HotBidThreshold = DefaultHotBidThreshold
	}
	return &Agent{
		cfg:       cfg,
		auctions:  make(map[string]*AuctionView),
		seen:      make(map[string]bool),
		read:      make(map[string]bool),
		listeners: make(map[string][]listener),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		wake:      make(chan struct{}),
	}
}

// Start launches the connection loop and the 1s derived-state ticker.
func (a *Agent) Start() {
	go a.run()
	go a.tickLoop()
}

// Stop disconnects and halts the loops.
func (a *Agent) Stop() {
	close(a.stop)
	close(a.wake)

	a.mu.Lock()
	if a.conn != nil {
		_ = a.conn.Close()
	}
	a.mu.Unlock()

	<-a.done
}

// Connected reports whether the transport is currently up.
func (a *Agent) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// Subscribe binds the agent to one auction. A later call overwrites the
// binding, mirroring the server's one-auction-per-connection rule.
func (a *Agent) Subscribe(auctionID string) {
	a.mu.Lock()
	a.subscribed = auctionID
	conn := a.conn
	a.mu.Unlock()

	if conn != nil {
		a.writeJSON(conn, ws.ClientMessage{Type: ws.TypeSubscribe, AuctionID: auctionID})
	}
}

// Auction returns the local view of one auction.
func (a *Agent) Auction(auctionID string) (AuctionView, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.auctions[auctionID]
	if !ok {
		return AuctionView{}, false
	}
	return a.derived(v), true
}

// Auctions returns the local view of every auction seen so far.
func (a *Agent) Auctions() []AuctionView {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AuctionView, 0, len(a.auctions))
	for _, v := range a.auctions {
		out = append(out, a.derived(v))
	}
	return out
}

// AddListener registers a callback for a message type ("auction_update",
// "outbid_notification", ...). The returned function removes it.
func (a *Agent) AddListener(msgType string, fn func(data []byte)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextLID++
	id := a.nextLID
	a.listeners[msgType] = append(a.listeners[msgType], listener{id: id, fn: fn})

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		ls := a.listeners[msgType]
		for i, l := range ls {
			if l.id == id {
				a.listeners[msgType] = append(ls[:i], ls[i+1:]...)
				return
			}
		}
	}
}

// run is the connect/read/reconnect loop with a flat retry interval.
func (a *Agent) run() {
	defer close(a.done)

	for {
		select {
		case <-a.stop:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(a.cfg.URL, nil)
		if err != nil {
			utils.Warn("sync agent: dial failed", map[string]any{"url": a.cfg.URL, "error": err.Error()})
			if !a.wait() {
				return
			}
			continue
		}

		a.onOpen(conn)
		a.readLoop(conn)
		a.onClose(conn)

		if !a.wait() {
			return
		}
	}
}

func (a *Agent) wait() bool {
	select {
	case <-a.stop:
		return false
	case <-a.wake:
		return false
	case <-time.After(a.cfg.RetryInterval):
		return true
	}
}

func (a *Agent) onOpen(conn *websocket.Conn) {
	a.mu.Lock()
	a.conn = conn
	a.connected = true
	subscribed := a.subscribed
	a.mu.Unlock()

	if a.cfg.UserID != "" {
		a.writeJSON(conn, ws.ClientMessage{Type: ws.TypeIdentify, UserID: a.cfg.UserID})
	}
	// Re-subscribe so the server answers with a fresh snapshot.
	if subscribed != "" {
		a.writeJSON(conn, ws.ClientMessage{Type: ws.TypeSubscribe, AuctionID: subscribed})
	}
}

func (a *Agent) onClose(conn *websocket.Conn) {
	_ = conn.Close()
	a.mu.Lock()
	if a.conn == conn {
		a.conn = nil
	}
	a.connected = false
	a.mu.Unlock()
}

func (a *Agent) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		a.handleMessage(data)
	}
}

func (a *Agent) handleMessage(data []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		utils.Warn("sync agent: malformed message ignored", map[string]any{"error": err.Error()})
		return
	}

	switch envelope.Type {
	case ws.TypeConnection:
		// handshake, nothing to merge
	case ws.TypeAuctionData:
		a.applySnapshot(data)
	case ws.TypeAuctionState:
		a.applyUpdate(data)
	case ws.TypeOutbid:
		a.applyOutbid(data)
	case ws.TypeAuctionWon:
		a.applyWon(data)
	default:
		utils.Warn("sync agent: unknown message type", map[string]any{"type": envelope.Type})
	}

	a.notifyListeners(envelope.Type, data)
}

func (a *Agent) notifyListeners(msgType string, data []byte) {
	a.mu.RLock()
	ls := append([]listener(nil), a.listeners[msgType]...)
	a.mu.RUnlock()
	for _, l := range ls {
		l.fn(data)
	}
}

// applySnapshot replaces the whole local record: auction_data is the
// authoritative resync after subscribe.
func (a *Agent) applySnapshot(data []byte) {
	var msg ws.AuctionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		utils.Warn("sync agent: bad auction_data", map[string]any{"error": err.Error()})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.auctions[msg.Auction.ID] = &AuctionView{
		ID:           msg.Auction.ID,
		CurrentPrice: msg.Auction.CurrentPrice,
		EndTime:      msg.Auction.EndTime,
		Bids:         msg.Auction.Bids,
		Status:       msg.Auction.Status,
	}
}

// applyUpdate merges only currentPrice, bids and status into an existing
// record; other local fields stay untouched. An update for an unknown
// auction is stored whole.
func (a *Agent) applyUpdate(data []byte) {
	var msg ws.AuctionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		utils.Warn("sync agent: bad auction_update", map[string]any{"error": err.Error()})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.auctions[msg.Auction.ID]
	if !ok {
		a.auctions[msg.Auction.ID] = &AuctionView{
			ID:           msg.Auction.ID,
			CurrentPrice: msg.Auction.CurrentPrice,
			EndTime:      msg.Auction.EndTime,
			Bids:         msg.Auction.Bids,
			Status:       msg.Auction.Status,
		}
		return
	}

	v.CurrentPrice = msg.Auction.CurrentPrice
	v.Bids = msg.Auction.Bids
	v.Status = msg.Auction.Status
}

// tickLoop recomputes time-derived state once per second.
func (a *Agent) tickLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.mu.Lock()
			now := time.Now()
			for _, v := range a.auctions {
				v.Ended = now.After(v.EndTime)
				v.Hot = len(v.Bids) >= a.cfg.HotBidThreshold
			}
			a.mu.Unlock()
		}
	}
}

// derived returns a copy with the time-derived fields freshly computed, so
// reads are correct even between ticks.
func (a *Agent) derived(v *AuctionView) AuctionView {
	out := *v
	out.Bids = append([]ws.BidView(nil), v.Bids...)
	out.Ended = time.Now().After(v.EndTime)
	out.Hot = len(v.Bids) >= a.cfg.HotBidThreshold
	return out
}

func (a *Agent) writeJSON(conn *websocket.Conn, v any) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		utils.Warn("sync agent: write failed", map[string]any{"error": err.Error()})
	}
}
