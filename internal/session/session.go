// Package session implements the relay's unit of multiplexing: one runner
// connection, a set of viewer connections, and the framebuffer they share,
// plus the sessions registry and idle-cleanup timer semantics.
package session

import (
	"sync"
	"time"

	"github.com/ptyrelay/relay/internal/codec"
	"github.com/ptyrelay/relay/internal/framebuffer"
)

// Conn is the minimal connection surface a Session needs from a runner or
// viewer transport. The relay package's WebSocket wrapper implements it;
// the session package itself never touches gorilla/websocket directly.
type Conn interface {
	SendBinary(data []byte) error
	SendText(data []byte) error
	Close() error
}

// DefaultTTL is how long a session lingers in the registry after it has
// exited and lost its last viewer, before cleanup deletes it.
const DefaultTTL = 30 * time.Minute

// Session binds one runner endpoint, a set of viewer endpoints, and one
// Framebuffer instance. All fields are mutated under mu; callers outside
// the session package must go through the exported methods, never touch
// fields directly.
type Session struct {
	ID string

	mu      sync.Mutex
	runner  Conn
	viewers map[Conn]struct{}
	fb      *framebuffer.Framebuffer
	codec   *codec.Codec
	exited  bool

	ttl          time.Duration
	cleanupTimer *time.Timer
	onExpire     func(id string)
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(s *Session) { s.ttl = d }
}

// New creates a Session with the given codec and framebuffer dimensions
// and no runner yet (see SetRunner). onExpire is invoked (outside the session's own
// lock) when the cleanup timer fires, so the caller can remove the
// session from its registry.
func New(id string, cols, rows int, c *codec.Codec, onExpire func(id string), opts ...Option) *Session {
	s := &Session{
		ID:       id,
		viewers:  make(map[Conn]struct{}),
		fb:       framebuffer.New(cols, rows),
		codec:    c,
		ttl:      DefaultTTL,
		onExpire: onExpire,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the session's compression codec.
func (s *Session) Codec() *codec.Codec {
	return s.codec
}

// SetRunner installs the runner connection. Spec guarantees at most one
// runner connection at a time; callers must not call SetRunner twice
// without an intervening RunnerDisconnected.
func (s *Session) SetRunner(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = c
	s.exited = false
	s.cancelCleanupLocked()
}

// Snapshot returns a serialization of the current framebuffer state,
// compressed per the session's mode and wrapped in the padded envelope
// for zstd and smaz, for sending to a newly joined viewer.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	raw := s.fb.Snapshot()
	s.mu.Unlock()

	compressed, err := s.codec.Compress(raw)
	if err != nil {
		return nil, err
	}
	if s.codec.Mode() == codec.ModeZstd || s.codec.Mode() == codec.ModeSmaz {
		return codec.PadFrame(compressed)
	}
	return compressed, nil
}

// HandleRunnerBinary feeds a decompressed runner-origin frame into the
// framebuffer (skipped when decErr is non-nil, per spec: a decode
// failure leaves framebuffer state untouched) and fans the original
// compressed bytes out to every viewer unchanged regardless.
func (s *Session) HandleRunnerBinary(compressed, raw []byte, decErr error) {
	s.mu.Lock()
	if decErr == nil {
		s.fb.Write(raw)
	}
	viewers := s.viewerListLocked()
	s.mu.Unlock()

	for _, v := range viewers {
		v.SendBinary(compressed)
	}
}

// HandleRunnerText applies a runner control message (resize/exit), whose
// fields the caller has already parsed, and forwards the raw text
// unchanged to every viewer. Unknown message
// shapes are forwarded as-is without being interpreted.
func (s *Session) HandleRunnerText(raw []byte, cols, rows int, isResize, isExit bool) {
	s.mu.Lock()
	if isResize {
		s.fb.Resize(cols, rows)
	}
	if isExit {
		s.markExitedLocked()
	}
	viewers := s.viewerListLocked()
	s.mu.Unlock()

	for _, v := range viewers {
		v.SendText(raw)
	}
}

// RunnerDisconnected clears the runner slot, marks the session exited,
// and arms the cleanup timer if there are no viewers.
func (s *Session) RunnerDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = nil
	s.markExitedLocked()
}

// AddViewer registers a viewer connection and cancels any pending cleanup
// timer (spec: a viewer joining before expiry cancels cleanup).
func (s *Session) AddViewer(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers[c] = struct{}{}
	s.cancelCleanupLocked()
}

// RemoveViewer unregisters a viewer connection and arms the cleanup timer
// if the session has exited and now has no viewers.
func (s *Session) RemoveViewer(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.viewers, c)
	if s.exited && len(s.viewers) == 0 {
		s.armCleanupLocked()
	}
}

// ForwardViewerBinary sends viewer-origin binary data to the runner
// unchanged; the relay never decompresses viewer-origin traffic.
func (s *Session) ForwardViewerBinary(data []byte) error {
	s.mu.Lock()
	r := s.runner
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.SendBinary(data)
}

// ForwardViewerText sends viewer-origin JSON to the runner unchanged.
func (s *Session) ForwardViewerText(data []byte) error {
	s.mu.Lock()
	r := s.runner
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.SendText(data)
}

// Exited reports whether the session's runner has exited or disconnected.
func (s *Session) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

// ReadyForCleanup reports whether the session is still eligible for
// registry removal: exited, with no viewers. Called by the registry when
// a cleanup timer fires, re-acquiring the session's own lock so a viewer
// or runner that reconnects concurrently with the timer firing — after
// losing the race to cancel it via cancelCleanupLocked — is observed
// correctly instead of being deleted out from under it.
func (s *Session) ReadyForCleanup() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited && len(s.viewers) == 0
}

// ViewerCount reports the current number of joined viewers.
func (s *Session) ViewerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

func (s *Session) viewerListLocked() []Conn {
	out := make([]Conn, 0, len(s.viewers))
	for v := range s.viewers {
		out = append(out, v)
	}
	return out
}

func (s *Session) markExitedLocked() {
	s.exited = true
	if len(s.viewers) == 0 {
		s.armCleanupLocked()
	}
}

func (s *Session) armCleanupLocked() {
	if s.cleanupTimer != nil {
		return
	}
	s.cleanupTimer = time.AfterFunc(s.ttl, func() {
		if s.onExpire != nil {
			s.onExpire(s.ID)
		}
	})
}

func (s *Session) cancelCleanupLocked() {
	if s.cleanupTimer == nil {
		return
	}
	s.cleanupTimer.Stop()
	s.cleanupTimer = nil
}
