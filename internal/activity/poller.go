package activity

import (
	"context"
	"log"
	"time"
)

// Poller periodically dispatches events appended by other service instances
// to this instance's subscribers. It is the documented polling substitute
// for a store-side change-notification stream.
type Poller struct {
	log      *Log
	interval time.Duration
}

// NewPoller creates a poller driving the given log at the given interval.
func NewPoller(l *Log, interval time.Duration) *Poller {
	return &Poller{log: l, interval: interval}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("Activity poller started (interval %s)", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.log.Dispatch(ctx); err != nil {
				log.Printf("Activity poll failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("Activity poller shutting down")
			return
		}
	}
}
