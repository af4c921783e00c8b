package session

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ptyrelay/relay/internal/codec"
)

type fakeConn struct {
	mu     sync.Mutex
	binary [][]byte
	text   [][]byte
	closed bool
}

func (f *fakeConn) SendBinary(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binary = append(f.binary, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) SendText(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = append(f.text, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New(codec.ModeNone)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewIDFormat(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("id %q has %d parts, want 3", id, len(parts))
	}
}

func TestRunnerBinaryFansOutToViewers(t *testing.T) {
	s := New("test-session-id", 10, 2, newTestCodec(t), nil)
	v1, v2 := &fakeConn{}, &fakeConn{}
	s.AddViewer(v1)
	s.AddViewer(v2)

	s.HandleRunnerBinary([]byte("hello"), []byte("hello"), nil)

	for _, v := range []*fakeConn{v1, v2} {
		if len(v.binary) != 1 || string(v.binary[0]) != "hello" {
			t.Fatalf("viewer did not receive fanned-out frame: %v", v.binary)
		}
	}
}

func TestViewerBinaryForwardedToRunnerUnchanged(t *testing.T) {
	s := New("test-session-id", 10, 2, newTestCodec(t), nil)
	runner := &fakeConn{}
	s.SetRunner(runner)

	if err := s.ForwardViewerBinary([]byte("keystroke")); err != nil {
		t.Fatal(err)
	}
	if len(runner.binary) != 1 || string(runner.binary[0]) != "keystroke" {
		t.Fatalf("runner did not receive forwarded viewer frame: %v", runner.binary)
	}
}

func TestRunnerDisconnectMarksExitedAndArmsCleanupWhenNoViewers(t *testing.T) {
	expired := make(chan string, 1)
	s := New("test-session-id", 10, 2, newTestCodec(t), func(id string) { expired <- id },
		WithTTL(10*time.Millisecond))
	s.SetRunner(&fakeConn{})
	s.RunnerDisconnected()

	if !s.Exited() {
		t.Fatal("session should be exited after runner disconnect")
	}

	select {
	case id := <-expired:
		if id != s.ID {
			t.Fatalf("expired id = %q, want %q", id, s.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("cleanup timer never fired")
	}
}

func TestViewerJoinCancelsPendingCleanup(t *testing.T) {
	expired := make(chan string, 1)
	s := New("test-session-id", 10, 2, newTestCodec(t), func(id string) { expired <- id },
		WithTTL(20*time.Millisecond))
	s.RunnerDisconnected() // exited, no viewers -> cleanup armed

	v := &fakeConn{}
	s.AddViewer(v) // should cancel the timer

	select {
	case <-expired:
		t.Fatal("cleanup fired despite a viewer joining first")
	case <-time.After(60 * time.Millisecond):
		// expected: no expiry
	}
}

func TestViewerDisconnectAfterExitArmsCleanup(t *testing.T) {
	expired := make(chan string, 1)
	s := New("test-session-id", 10, 2, newTestCodec(t), func(id string) { expired <- id },
		WithTTL(10*time.Millisecond))
	v := &fakeConn{}
	s.AddViewer(v)
	s.RunnerDisconnected() // exited, but still has a viewer: no cleanup yet
	s.RemoveViewer(v)      // now exited and viewerless: cleanup should arm

	select {
	case id := <-expired:
		if id != s.ID {
			t.Fatalf("expired id = %q, want %q", id, s.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("cleanup timer never fired after last viewer left")
	}
}

func TestResizeMessageResizesFramebuffer(t *testing.T) {
	s := New("test-session-id", 10, 2, newTestCodec(t), nil)
	s.HandleRunnerText([]byte(`{"type":"resize","cols":40,"rows":12}`), 40, 12, true, false)
	cols, rows := s.fb.GetSize()
	if cols != 40 || rows != 12 {
		t.Fatalf("framebuffer size = (%d,%d), want (40,12)", cols, rows)
	}
}

func TestExitMessageMarksExited(t *testing.T) {
	s := New("test-session-id", 10, 2, newTestCodec(t), nil)
	s.HandleRunnerText([]byte(`{"type":"exit","code":0}`), 0, 0, false, true)
	if !s.Exited() {
		t.Fatal("session should be exited after an exit control message")
	}
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()
	c := newTestCodec(t)
	s, err := r.Create("", 80, 24, c)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := r.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("registry did not return the created session")
	}
}

func TestRegistryCreateWithExplicitID(t *testing.T) {
	r := NewRegistry()
	c := newTestCodec(t)
	s, err := r.Create("fixed-session-id", 80, 24, c)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "fixed-session-id" {
		t.Fatalf("id = %q, want fixed-session-id", s.ID)
	}
}

func TestRegistryRemovesSessionOnCleanupExpiry(t *testing.T) {
	r := NewRegistry()
	c := newTestCodec(t)
	s, err := r.Create("", 80, 24, c)
	if err != nil {
		t.Fatal(err)
	}
	s.ttl = 10 * time.Millisecond
	s.RunnerDisconnected()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := r.Get(s.ID); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session was never removed from the registry after cleanup TTL")
}

// TestRegistryExpireRechecksEligibility guards against the race where a
// viewer reconnects between the cleanup timer firing and the registry
// acting on it: Timer.Stop (from cancelCleanupLocked) can lose that race,
// so expire must re-check the session under its own lock rather than
// trusting that a fired timer still means "safe to delete".
func TestRegistryExpireRechecksEligibility(t *testing.T) {
	r := NewRegistry()
	c := newTestCodec(t)
	s, err := r.Create("", 80, 24, c)
	if err != nil {
		t.Fatal(err)
	}
	s.RunnerDisconnected() // exited, no viewers: eligible

	// Simulate a viewer reconnecting after the timer fired but before the
	// registry's callback runs.
	v := &fakeConn{}
	s.AddViewer(v)

	r.expire(s.ID)

	if _, ok := r.Get(s.ID); !ok {
		t.Fatal("expire removed a session that gained a viewer before it ran")
	}
}
