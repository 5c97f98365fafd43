package client

import (
	"encoding/json"
	"time"

	"mazadi/internal/ws"
	"mazadi/utils"
)

// Notification is a client-local, ephemeral alert. There is no durable
// inbox: restarting the agent clears the list, while read markers are kept
// separately and survive.
type Notification struct {
	ID        string
	Type      string // "outbid" or "auction_won"
	AuctionID string
	Message   string
	Timestamp time.Time
	Read      bool

	dedupKey string
}

func (a *Agent) applyOutbid(data []byte) {
	var msg ws.OutbidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		utils.Warn("sync agent: bad outbid_notification", map[string]any{"error": err.Error()})
		return
	}
	a.addNotification("outbid", msg.AuctionID, msg.Message,
		"outbid|"+msg.AuctionID+"|"+msg.NewBidAmount.String())
}

func (a *Agent) applyWon(data []byte) {
	var msg ws.AuctionWonMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		utils.Warn("sync agent: bad auction_won", map[string]any{"error": err.Error()})
		return
	}
	a.addNotification("auction_won", msg.AuctionID, msg.Message,
		"auction_won|"+msg.AuctionID)
}

// addNotification appends a deduplicated notification. dedupKey collapses
// repeat deliveries of the same event (e.g. one per open connection).
func (a *Agent) addNotification(kind, auctionID, message, dedupKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seen[dedupKey] {
		return
	}
	a.seen[dedupKey] = true

	a.notifications = append([]Notification{{
		ID:        utils.GenerateID(),
		Type:      kind,
		AuctionID: auctionID,
		Message:   message,
		Timestamp: time.Now(),
		Read:      a.read[dedupKey],
		dedupKey:  dedupKey,
	}}, a.notifications...)
}

// Notifications returns the current list, newest first.
func (a *Agent) Notifications() []Notification {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Notification(nil), a.notifications...)
}

// UnreadCount returns how many notifications are unread.
func (a *Agent) UnreadCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, nt := range a.notifications {
		if !nt.Read {
			n++
		}
	}
	return n
}

// MarkRead flags a notification as read. The marker is keyed by the
// notification's dedup identity, so it survives ClearNotifications.
func (a *Agent) MarkRead(notificationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.notifications {
		if a.notifications[i].ID == notificationID {
			a.notifications[i].Read = true
			a.read[a.notifications[i].dedupKey] = true
			return
		}
	}
}

// RemoveNotification deletes one notification from the list.
func (a *Agent) RemoveNotification(notificationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.notifications {
		if a.notifications[i].ID == notificationID {
			a.notifications = append(a.notifications[:i], a.notifications[i+1:]...)
			return
		}
	}
}

// ClearNotifications empties the list, keeping read markers.
func (a *Agent) ClearNotifications() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifications = nil
	a.seen = make(map[string]bool)
}
