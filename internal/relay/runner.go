package relay

import (
	"log"
	"net/http"

	"github.com/ptyrelay/relay/internal/codec"
)

// handleRunner upgrades GET /runner?token=...[&id=...] to a WebSocket and
// binds it as the session's runner connection. Token mismatch yields 401
// before any upgrade is attempted.
func (s *Server) handleRunner(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !checkToken(token, s.cfg.Token) {
		log.Printf("[WARN] runner auth failed from %s", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	c, err := codec.New(s.cfg.CompressionMode)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	requestedID := r.URL.Query().Get("id")
	sess, err := s.registry.Create(requestedID, 80, 24, c)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	wsConnRaw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] runner upgrade failed: %v", err)
		return
	}
	conn := newWSConn(wsConnRaw)
	log.Printf("[INFO] conn %s: runner joined session %s", conn.ID(), sess.ID)

	sess.SetRunner(conn)
	conn.SendText(sessionFrame(sess.ID, string(s.cfg.CompressionMode)))

	conn.readLoop(
		func(data []byte) {
			raw, err := c.Decompress(data)
			if err != nil {
				log.Printf("[WARN] conn %s: session %s: decompress runner frame: %v", conn.ID(), sess.ID, err)
			} else {
				s.tracker.RecordInbound(len(raw), len(data))
			}
			sess.HandleRunnerBinary(data, raw, err)
			for i, n := 0, sess.ViewerCount(); i < n; i++ {
				s.tracker.RecordOutbound(len(raw), len(data))
			}
		},
		func(data []byte) {
			msg := parseControlMessage(data)
			sess.HandleRunnerText(data, msg.Cols, msg.Rows, msg.Type == "resize", msg.Type == "exit")
		},
	)

	sess.RunnerDisconnected()
	conn.Close()
	log.Printf("[INFO] conn %s: runner left session %s", conn.ID(), sess.ID)
}
