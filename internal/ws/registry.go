package ws

import "sync"

// Subscription binds one live connection to at most one auction and,
// once authenticated, one user.
type Subscription struct {
	AuctionID string
	UserID    string
}

// Registry maps connection ids to their Subscription. It holds application
// state that would otherwise be smeared across transport objects, and is
// where targeted sends look up their recipients.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]Subscription // key: connID
}

// NewRegistry creates an empty subscription registry
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[string]Subscription),
	}
}

// Subscribe binds connID to auctionID, replacing any previous binding.
// The user identity, if bound, is preserved.
func (r *Registry) Subscribe(connID, auctionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := r.subs[connID]
	sub.AuctionID = auctionID
	r.subs[connID] = sub
}

// BindUser records the authenticated user for connID.
func (r *Registry) BindUser(connID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := r.subs[connID]
	sub.UserID = userID
	r.subs[connID] = sub
}

// Drop removes all state for connID.
func (r *Registry) Drop(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, connID)
}

// Get returns the subscription for connID.
func (r *Registry) Get(connID string) (Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[connID]
	return sub, ok
}

// ConnsMatching returns the ids of connections whose subscription satisfies
// the predicate.
func (r *Registry) ConnsMatching(pred func(Subscription) bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, sub := range r.subs {
		if pred(sub) {
			ids = append(ids, id)
		}
	}
	return ids
}

// SubscribersOf returns the connections currently bound to auctionID.
func (r *Registry) SubscribersOf(auctionID string) []string {
	return r.ConnsMatching(func(s Subscription) bool {
		return s.AuctionID == auctionID
	})
}

// ConnsOfUser returns the connections authenticated as userID.
func (r *Registry) ConnsOfUser(userID string) []string {
	if userID == "" {
		return nil
	}
	return r.ConnsMatching(func(s Subscription) bool {
		return s.UserID == userID
	})
}
