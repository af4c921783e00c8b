// Package stats maintains the relay's observability counters: cumulative
// byte/frame totals and a rolling 5-second window used to compute recent
// throughput, plus compression ratios, logged periodically.
package stats

import (
	"sync"
	"time"
)

// sample is one recorded event: either an inbound (runner->relay) or
// outbound (relay->viewers) frame, with its raw and wire-compressed size.
type sample struct {
	at          time.Time
	rawBytes    int64
	wireBytes   int64
	inbound     bool
}

// windowSize bounds the rolling window used for recent rate calculations.
const windowSize = 5 * time.Second

// Tracker accumulates lifetime totals and a pruned rolling window of
// recent samples. All methods are safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	window []sample

	totalInRaw, totalInWire   int64
	totalOutRaw, totalOutWire int64
	totalInFrames, totalOutFrames int64
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// RecordInbound records one runner-origin frame: rawBytes is the
// decompressed size fed to the framebuffer, wireBytes is the size that
// crossed the wire (the compressed form).
func (t *Tracker) RecordInbound(rawBytes, wireBytes int) {
	t.record(true, rawBytes, wireBytes)
}

// RecordOutbound records one relay-to-viewer frame (fan-out counts once
// per send, so N viewers of the same frame count N times).
func (t *Tracker) RecordOutbound(rawBytes, wireBytes int) {
	t.record(false, rawBytes, wireBytes)
}

func (t *Tracker) record(inbound bool, rawBytes, wireBytes int) {
	now := nowFunc()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.window = append(t.window, sample{at: now, rawBytes: int64(rawBytes), wireBytes: int64(wireBytes), inbound: inbound})
	t.pruneLocked(now)

	if inbound {
		t.totalInRaw += int64(rawBytes)
		t.totalInWire += int64(wireBytes)
		t.totalInFrames++
	} else {
		t.totalOutRaw += int64(rawBytes)
		t.totalOutWire += int64(wireBytes)
		t.totalOutFrames++
	}
}

// pruneLocked drops samples older than windowSize. Called lazily from
// every record and Snapshot, per spec, rather than on its own timer.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-windowSize)
	i := 0
	for i < len(t.window) && t.window[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.window = t.window[i:]
	}
}

// Snapshot is a point-in-time view of the tracker's counters, used by the
// periodic logger and by any diagnostic endpoint.
type Snapshot struct {
	RecentInBytesPerSec  float64
	RecentOutBytesPerSec float64
	RecentFramesPerSec   float64
	InstantRatio         float64 // recent wire/raw ratio across both directions
	LifetimeRatio        float64 // cumulative wire/raw ratio across both directions
	TotalInBytes         int64
	TotalOutBytes        int64
}

// Snapshot prunes the window and computes current rates and ratios.
func (t *Tracker) Snapshot() Snapshot {
	now := nowFunc()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(now)

	var inBytes, outBytes, wireBytes, rawBytes int64
	var frames int64
	for _, s := range t.window {
		if s.inbound {
			inBytes += s.rawBytes
		} else {
			outBytes += s.rawBytes
		}
		rawBytes += s.rawBytes
		wireBytes += s.wireBytes
		frames++
	}

	secs := windowSize.Seconds()
	snap := Snapshot{
		RecentInBytesPerSec:  float64(inBytes) / secs,
		RecentOutBytesPerSec: float64(outBytes) / secs,
		RecentFramesPerSec:   float64(frames) / secs,
		TotalInBytes:         t.totalInWire,
		TotalOutBytes:        t.totalOutWire,
	}
	if rawBytes > 0 {
		snap.InstantRatio = float64(wireBytes) / float64(rawBytes)
	}
	lifetimeRaw := t.totalInRaw + t.totalOutRaw
	lifetimeWire := t.totalInWire + t.totalOutWire
	if lifetimeRaw > 0 {
		snap.LifetimeRatio = float64(lifetimeWire) / float64(lifetimeRaw)
	}
	return snap
}

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now
