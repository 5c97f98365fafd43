package ws

import (
	"errors"
	"sync"
	"testing"
	"time"

	"mazadi/internal/directory"
	"mazadi/internal/models"
	"mazadi/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeConn records everything written to it.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []any
	failed bool
	closed bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return errors.New("broken pipe")
	}
	f.msgs = append(f.msgs, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messages() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.msgs...)
}

// messagesOfType filters out the connection handshake and snapshot noise.
func (f *fakeConn) messagesOfType(msgType string) []any {
	var out []any
	for _, m := range f.messages() {
		switch v := m.(type) {
		case AuctionMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case OutbidMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case AuctionWonMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case ConnectionMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		}
	}
	return out
}

func testHub(t *testing.T) (*Hub, *repository.MemoryRepo) {
	t.Helper()

	repo := repository.NewMemoryRepo()
	dir := directory.NewMemoryDirectory()
	dir.AddUser(models.User{UserID: "user1", Name: "Amira"})
	dir.AddUser(models.User{UserID: "user2", Name: "Karim"})

	now := time.Now().UTC()
	for _, id := range []string{"auctionX", "auctionY"} {
		price := decimal.NewFromInt(100)
		require.NoError(t, repo.CreateAuction(models.Auction{
			AuctionID:     id,
			ProductID:     "product1",
			StartingPrice: price,
			CurrentPrice:  price,
			StartTime:     now.Add(-time.Hour),
			EndTime:       now.Add(time.Hour),
			Status:        models.StatusActive,
			Bids:          []models.Bid{},
		}))
	}

	return NewHub(repo, dir), repo
}

func TestHub_RegisterSendsHandshake(t *testing.T) {
	hub, _ := testHub(t)
	conn := &fakeConn{}

	hub.Register(conn, "")

	handshakes := conn.messagesOfType(TypeConnection)
	require.Len(t, handshakes, 1)
	require.True(t, handshakes[0].(ConnectionMessage).Connected)
}

func TestHub_SubscribeRepliesWithSnapshot(t *testing.T) {
	hub, repo := testHub(t)
	now := time.Now().UTC()
	_, _, err := repo.AppendBidIfHigher("auctionX",
		models.Bid{BidID: "b1", Bidder: "user1", Amount: decimal.NewFromInt(150), Timestamp: now}, now)
	require.NoError(t, err)

	conn := &fakeConn{}
	connID := hub.Register(conn, "")
	hub.Subscribe(connID, "auctionX")

	snapshots := conn.messagesOfType(TypeAuctionData)
	require.Len(t, snapshots, 1)

	snap := snapshots[0].(AuctionMessage).Auction
	require.Equal(t, "auctionX", snap.ID)
	require.True(t, snap.CurrentPrice.Equal(decimal.NewFromInt(150)))
	require.Len(t, snap.Bids, 1)
	require.Equal(t, "Amira", snap.Bids[0].User, "bidder resolved to display name")
}

func TestHub_SubscribeUnknownAuctionIsSilent(t *testing.T) {
	hub, _ := testHub(t)
	conn := &fakeConn{}
	connID := hub.Register(conn, "")

	hub.Subscribe(connID, "missing")

	require.Empty(t, conn.messagesOfType(TypeAuctionData))
}

func TestHub_BroadcastIsolation(t *testing.T) {
	hub, repo := testHub(t)

	connX := &fakeConn{}
	connY := &fakeConn{}
	idX := hub.Register(connX, "")
	idY := hub.Register(connY, "")
	hub.Subscribe(idX, "auctionX")
	hub.Subscribe(idY, "auctionY")

	auctionX, err := repo.GetAuction("auctionX")
	require.NoError(t, err)
	hub.BroadcastAuctionUpdate(auctionX)

	require.Len(t, connX.messagesOfType(TypeAuctionState), 1)
	require.Empty(t, connY.messagesOfType(TypeAuctionState),
		"subscriber of auctionY must not see auctionX updates")
}

// Resubscribing rebinds rather than stacking subscriptions: after moving to
// auctionY the connection receives exactly one push per update and none for
// the old auction.
func TestHub_ResubscribeNoDuplicatePushes(t *testing.T) {
	hub, repo := testHub(t)

	conn := &fakeConn{}
	connID := hub.Register(conn, "")
	hub.Subscribe(connID, "auctionX")
	hub.Subscribe(connID, "auctionX") // same auction again
	hub.Subscribe(connID, "auctionY") // then rebind

	auctionY, err := repo.GetAuction("auctionY")
	require.NoError(t, err)
	hub.BroadcastAuctionUpdate(auctionY)

	require.Len(t, conn.messagesOfType(TypeAuctionState), 1, "exactly one push per update")

	auctionX, err := repo.GetAuction("auctionX")
	require.NoError(t, err)
	hub.BroadcastAuctionUpdate(auctionX)

	require.Len(t, conn.messagesOfType(TypeAuctionState), 1, "no pushes for the abandoned binding")
}

func TestHub_NotifyOutbidTargetsUserConnections(t *testing.T) {
	hub, _ := testHub(t)

	outbid := &fakeConn{}
	bystander := &fakeConn{}
	outbidID := hub.Register(outbid, "user1")
	hub.Register(bystander, "user2")
	hub.Subscribe(outbidID, "auctionX")

	hub.NotifyOutbid("user1", "auctionX", decimal.NewFromInt(200))

	msgs := outbid.messagesOfType(TypeOutbid)
	require.Len(t, msgs, 1)
	m := msgs[0].(OutbidMessage)
	require.Equal(t, "auctionX", m.AuctionID)
	require.True(t, m.NewBidAmount.Equal(decimal.NewFromInt(200)))
	require.Contains(t, m.Message, "outbid")

	require.Empty(t, bystander.messagesOfType(TypeOutbid))
}

func TestHub_NotifyAuctionWon(t *testing.T) {
	hub, _ := testHub(t)

	winner := &fakeConn{}
	hub.Register(winner, "user2")

	hub.NotifyAuctionWon("user2", "auctionX", "Vintage Camera")

	msgs := winner.messagesOfType(TypeAuctionWon)
	require.Len(t, msgs, 1)
	require.Equal(t, "Vintage Camera", msgs[0].(AuctionWonMessage).AuctionName)
}

// A dead connection is dropped on the first failed write and never breaks
// the fan-out for the remaining subscribers.
func TestHub_BrokenConnectionDropped(t *testing.T) {
	hub, repo := testHub(t)

	healthy := &fakeConn{}
	broken := &fakeConn{}
	healthyID := hub.Register(healthy, "")
	brokenID := hub.Register(broken, "")
	hub.Subscribe(healthyID, "auctionX")
	hub.Subscribe(brokenID, "auctionX")

	broken.mu.Lock()
	broken.failed = true
	broken.mu.Unlock()

	auctionX, err := repo.GetAuction("auctionX")
	require.NoError(t, err)
	hub.BroadcastAuctionUpdate(auctionX)

	require.Len(t, healthy.messagesOfType(TypeAuctionState), 1)

	_, ok := hub.Registry().Get(brokenID)
	require.False(t, ok, "broken connection must be unregistered")
	require.True(t, broken.closed)
}

func TestHub_UnregisterDropsSubscription(t *testing.T) {
	hub, repo := testHub(t)

	conn := &fakeConn{}
	connID := hub.Register(conn, "user1")
	hub.Subscribe(connID, "auctionX")
	hub.Unregister(connID)

	auctionX, err := repo.GetAuction("auctionX")
	require.NoError(t, err)
	hub.BroadcastAuctionUpdate(auctionX)

	require.Empty(t, conn.messagesOfType(TypeAuctionState))
	require.True(t, conn.closed)
}

// Unknown bidders fall back to their raw id instead of failing the push.
func TestHub_SnapshotUnknownBidderFallsBack(t *testing.T) {
	hub, repo := testHub(t)
	now := time.Now().UTC()
	_, _, err := repo.AppendBidIfHigher("auctionX",
		models.Bid{BidID: "b1", Bidder: "ghost", Amount: decimal.NewFromInt(150), Timestamp: now}, now)
	require.NoError(t, err)

	conn := &fakeConn{}
	connID := hub.Register(conn, "")
	hub.Subscribe(connID, "auctionX")

	snap := conn.messagesOfType(TypeAuctionData)[0].(AuctionMessage).Auction
	require.Equal(t, "ghost", snap.Bids[0].User)
}
