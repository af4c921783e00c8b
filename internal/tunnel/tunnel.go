// Package tunnel exposes the relay's HTTP listener to the public internet
// through an ngrok tunnel, as an optional alternative to opening a port
// directly or terminating TLS locally.
package tunnel

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

// Status is the tunnel's current lifecycle state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Info describes the currently active (or most recently attempted) tunnel.
type Info struct {
	URL         string    `json:"url"`
	Status      Status    `json:"status"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
	Error       string    `json:"error,omitempty"`
	LocalURL    string    `json:"local_url"`
}

// Error is a tunnel-specific sentinel error.
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string { return e.Message }

var (
	ErrNotConnected   = Error{Code: "not_connected", Message: "tunnel is not connected"}
	ErrAlreadyRunning = Error{Code: "already_running", Message: "tunnel is already running"}
)

// Service manages an ngrok tunnel's lifecycle: starting it in the
// background, tracking its status, and tearing it down.
type Service struct {
	mu        sync.RWMutex
	forwarder ngrok.Forwarder
	info      Info
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a Service with no active tunnel.
func New() *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		ctx:    ctx,
		cancel: cancel,
		info:   Info{Status: StatusDisconnected},
	}
}

// Start launches a tunnel forwarding to http://127.0.0.1:localPort,
// authenticated with authToken. It returns immediately; connection
// establishment happens in the background, reflected in GetStatus.
func (s *Service) Start(authToken string, localPort int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info.Status == StatusConnected || s.info.Status == StatusConnecting {
		return ErrAlreadyRunning
	}

	s.info.Status = StatusConnecting
	s.info.Error = ""
	s.info.LocalURL = fmt.Sprintf("http://127.0.0.1:%d", localPort)

	go func() {
		if err := s.startTunnel(authToken, localPort); err != nil {
			s.mu.Lock()
			s.info.Status = StatusError
			s.info.Error = err.Error()
			s.mu.Unlock()
			log.Printf("[ERROR] ngrok tunnel failed: %v", err)
		}
	}()

	return nil
}

func (s *Service) startTunnel(authToken string, localPort int) error {
	localURL, err := url.Parse(fmt.Sprintf("http://127.0.0.1:%d", localPort))
	if err != nil {
		return fmt.Errorf("invalid local port: %w", err)
	}

	forwarder, err := ngrok.ListenAndForward(s.ctx, localURL, config.HTTPEndpoint(), ngrok.WithAuthtoken(authToken))
	if err != nil {
		return fmt.Errorf("create ngrok tunnel: %w", err)
	}

	s.mu.Lock()
	s.forwarder = forwarder
	s.info.URL = forwarder.URL()
	s.info.Status = StatusConnected
	s.info.ConnectedAt = time.Now()
	s.mu.Unlock()

	log.Printf("[INFO] ngrok tunnel established: %s -> http://127.0.0.1:%d", forwarder.URL(), localPort)

	return forwarder.Wait()
}

// Stop tears down the active tunnel.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info.Status == StatusDisconnected {
		return ErrNotConnected
	}

	s.cancel()

	if s.forwarder != nil {
		if err := s.forwarder.Close(); err != nil {
			log.Printf("[WARN] error closing ngrok forwarder: %v", err)
		}
		s.forwarder = nil
	}

	s.info = Info{Status: StatusDisconnected}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	log.Printf("[INFO] ngrok tunnel stopped")
	return nil
}

// GetStatus returns the tunnel's current info.
func (s *Service) GetStatus() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}
