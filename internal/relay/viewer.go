package relay

import (
	"log"
	"net/http"
)

const closeCodeSessionNotFound = 4004

// handleViewer upgrades GET /ws?id=...&token=... to a WebSocket and joins
// it to an existing session as a viewer. A bad token yields 401 and a
// missing id yields 400, both before any upgrade; an unknown session id is
// upgraded and then closed with 4004 (the close code can only be
// delivered over an established WebSocket connection).
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if !checkToken(token, s.cfg.Token) {
		log.Printf("[WARN] viewer auth failed from %s", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	sess, ok := s.registry.Get(id)
	if !ok {
		wsConnRaw, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := newWSConn(wsConnRaw)
		conn.closeWithCode(closeCodeSessionNotFound, "Session not found")
		return
	}

	wsConnRaw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] viewer upgrade failed: %v", err)
		return
	}
	conn := newWSConn(wsConnRaw)
	log.Printf("[INFO] conn %s: viewer joined session %s", conn.ID(), sess.ID)

	sess.AddViewer(conn)
	conn.SendText(compressionFrame(string(sess.Codec().Mode())))

	snapshot, err := sess.Snapshot()
	if err != nil {
		log.Printf("[WARN] conn %s: session %s: snapshot: %v", conn.ID(), sess.ID, err)
	} else {
		conn.SendBinary(snapshot)
		s.tracker.RecordOutbound(len(snapshot), len(snapshot))
	}
	conn.SendText(readyFrame())

	conn.readLoop(
		func(data []byte) {
			sess.ForwardViewerBinary(data)
		},
		func(data []byte) {
			sess.ForwardViewerText(data)
		},
	)

	sess.RemoveViewer(conn)
	conn.Close()
	log.Printf("[INFO] conn %s: viewer left session %s", conn.ID(), sess.ID)
}
