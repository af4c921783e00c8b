package stats

import (
	"testing"
	"time"
)

func withFakeClock(t *testing.T, start time.Time) func(advance time.Duration) {
	t.Helper()
	now := start
	orig := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = orig })
	return func(advance time.Duration) { now = now.Add(advance) }
}

func TestSnapshotComputesRecentRates(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	tr := New()

	tr.RecordInbound(1000, 500)
	advance(time.Second)
	tr.RecordOutbound(1000, 500)

	snap := tr.Snapshot()
	if snap.RecentInBytesPerSec <= 0 {
		t.Fatalf("expected positive recent inbound rate, got %v", snap.RecentInBytesPerSec)
	}
	if snap.RecentOutBytesPerSec <= 0 {
		t.Fatalf("expected positive recent outbound rate, got %v", snap.RecentOutBytesPerSec)
	}
	if snap.InstantRatio != 0.5 {
		t.Fatalf("instant ratio = %v, want 0.5", snap.InstantRatio)
	}
}

func TestWindowPrunesOldSamples(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	tr := New()

	tr.RecordInbound(100, 100)
	advance(6 * time.Second) // past the 5s window
	tr.RecordInbound(100, 100)

	snap := tr.Snapshot()
	// Only the most recent sample should count toward recent rate; the
	// pruned one contributes nothing.
	if snap.RecentInBytesPerSec != 100/windowSize.Seconds() {
		t.Fatalf("recent rate = %v, want %v", snap.RecentInBytesPerSec, 100/windowSize.Seconds())
	}
}

func TestLifetimeRatioAccumulatesAcrossPrunedSamples(t *testing.T) {
	advance := withFakeClock(t, time.Unix(0, 0))
	tr := New()

	tr.RecordInbound(1000, 250)
	advance(10 * time.Second)
	tr.RecordInbound(1000, 250)

	snap := tr.Snapshot()
	if snap.LifetimeRatio != 0.25 {
		t.Fatalf("lifetime ratio = %v, want 0.25 (unaffected by window pruning)", snap.LifetimeRatio)
	}
	if snap.TotalInBytes != 500 {
		t.Fatalf("total in bytes = %d, want 500", snap.TotalInBytes)
	}
}
