package stats

import (
	"context"
	"log"
	"time"
)

// SessionCounts is the subset of registry state the periodic logger needs;
// kept as an interface so stats has no import dependency on session.
type SessionCounts interface {
	Count() int
	TotalViewers() int
}

// RunLogger logs a stats summary line every interval until ctx is
// cancelled. Intended to be launched in its own goroutine from the relay
// server's startup path.
func RunLogger(ctx context.Context, t *Tracker, registry SessionCounts, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := t.Snapshot()
			log.Printf("[INFO] stats sessions=%d viewers=%d in=%.0fB/s out=%.0fB/s fps=%.1f ratio.instant=%.3f ratio.lifetime=%.3f total.in=%d total.out=%d",
				registry.Count(), registry.TotalViewers(),
				snap.RecentInBytesPerSec, snap.RecentOutBytesPerSec, snap.RecentFramesPerSec,
				snap.InstantRatio, snap.LifetimeRatio, snap.TotalInBytes, snap.TotalOutBytes)
		}
	}
}
