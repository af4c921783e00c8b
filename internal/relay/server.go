// Package relay implements the HTTP + WebSocket endpoint set: token auth,
// session allocation/lookup, upgrade, fan-out routing, joiner
// snapshotting, and stats aggregation.
package relay

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ptyrelay/relay/internal/codec"
	"github.com/ptyrelay/relay/internal/session"
	"github.com/ptyrelay/relay/internal/stats"
	"github.com/ptyrelay/relay/internal/tunnel"
)

// Config is the subset of process configuration the relay server needs,
// decoupled from internal/config's YAML shape so this package has no
// dependency on it.
type Config struct {
	Port           int
	Token          string
	CompressionMode codec.Mode
	SessionTTL     time.Duration
	StatsInterval  time.Duration
	StaticPath     string
}

// Server is the relay's HTTP + WebSocket front end.
type Server struct {
	cfg      Config
	registry *session.Registry
	tracker  *stats.Tracker
	tunnel   *tunnel.Service
	upgrader websocket.Upgrader
}

// New creates a Server ready to have its routes mounted and started.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		registry: session.NewRegistry(),
		tracker:  stats.New(),
		tunnel:   tunnel.New(),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:       func(r *http.Request) bool { return true },
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		EnableCompression: cfg.CompressionMode == codec.ModeDeflate,
	}
	return s
}

// Handler builds the full routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/runner", s.handleRunner).Methods("GET")
	r.HandleFunc("/ws", s.handleViewer).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	if s.cfg.StaticPath != "" {
		r.PathPrefix("/").HandlerFunc(serveStaticWithIndex(s.cfg.StaticPath))
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `{"status":"ok","sessions":%d,"viewers":%d}`, s.registry.Count(), s.registry.TotalViewers())
}

// Run starts the HTTP server, the periodic stats logger, and blocks until
// a shutdown signal arrives, then drains gracefully.
func (s *Server) Run(ctx context.Context) error {
	statsCtx, cancelStats := context.WithCancel(ctx)
	defer cancelStats()
	go stats.RunLogger(statsCtx, s.tracker, s.registry, s.cfg.StatsInterval)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-sigChan:
		log.Printf("[INFO] shutting down relay server")
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// Registry exposes the sessions registry for administrative tooling
// (e.g. a future CLI status subcommand).
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// Tunnel exposes the ngrok tunnel service, started separately by the CLI
// layer before Run/RunTLS; the tunnel connects in the background.
func (s *Server) Tunnel() *tunnel.Service {
	return s.tunnel
}
