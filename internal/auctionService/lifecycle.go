package auction

import (
	"time"

	"mazadi/internal/models"
	"mazadi/utils"
)

// SweepExpired ends every auction whose time window has passed while its
// status still reads active. Bidding on such auctions is already rejected
// by the time-window check; the sweep settles them and notifies winners.
// Returns the number of auctions closed.
func (s *AuctionService) SweepExpired() int {
	auctions, err := s.repo.ListAuctions()
	if err != nil {
		utils.Error("lifecycle sweep: failed to list auctions", map[string]any{"error": err.Error()})
		return 0
	}

	now := time.Now().UTC()
	closed := 0
	for _, a := range auctions {
		if a.Status != models.StatusActive || !now.After(a.EndTime) {
			continue
		}
		if _, err := s.EndAuction(a.AuctionID); err != nil {
			// Lost the race with an explicit end; nothing to do.
			utils.Warn("lifecycle sweep: end failed", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		closed++
	}
	return closed
}

// Sweeper periodically settles time-expired auctions.
type Sweeper struct {
	service  *AuctionService
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper ticking at the given interval
func NewSweeper(service *AuctionService, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called.
func (sw *Sweeper) Start() {
	go func() {
		defer close(sw.done)
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sw.service.SweepExpired(); n > 0 {
					utils.Info("lifecycle sweep: auctions closed", map[string]any{"count": n})
				}
			case <-sw.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit.
func (sw *Sweeper) Stop() {
	close(sw.stop)
	<-sw.done
}
