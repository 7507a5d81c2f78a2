package session

import (
	"context"
	"time"

	"github.com/edulab/homeworkd/internal/logger"
)

// Reaper closes idle edit sessions on a fixed polling interval. An abandoned
// editor tab would otherwise hold its controller (and its timers) forever.
type Reaper struct {
	manager *Manager
	poll    time.Duration
	ttl     time.Duration
}

func NewReaper(manager *Manager, poll, ttl time.Duration) *Reaper {
	return &Reaper{manager: manager, poll: poll, ttl: ttl}
}

// Start runs the polling loop until ctx is canceled.
func (r *Reaper) Start(ctx context.Context) {
	logger.WithComponent("session-reaper").Debugf("starting session reaper with interval: %v, ttl: %v", r.poll, r.ttl)
	ticker := time.NewTicker(r.poll)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("session-reaper").Info("session reaper stopped")
				return
			case <-ticker.C:
				if n := r.manager.CloseIdle(r.ttl); n > 0 {
					logger.WithComponent("session-reaper").Infof("closed %d idle sessions", n)
				}
			}
		}
	}()
}
