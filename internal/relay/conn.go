package relay

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// errSendBufferFull is returned by SendBinary/SendText when the
// connection's outbound backlog was full and the frame was dropped.
var errSendBufferFull = errors.New("relay: send buffer full")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	sendBufferSize = 256

	// closeCodeSendBufferFull is sent to a viewer (or runner) whose send
	// backlog never drained: the connection is disconnected rather than
	// left to stall every other connection sharing the same session.
	closeCodeSendBufferFull = 4008
)

// wsConn wraps a gorilla/websocket connection with a buffered writer
// goroutine, ping keepalive, and a done channel for cancellation. It
// implements session.Conn.
type wsConn struct {
	conn *websocket.Conn

	// id is a short per-connection correlation id, distinct from the
	// session id, stitched into this connection's log lines so a
	// multi-line incident (join, overflow, read error, leave) can be
	// traced back to one socket among many sharing a session.
	id string

	// writeMu serializes every WriteMessage/SetWriteDeadline call against
	// conn: writeLoop and an overflow-triggered closeWithCode can run on
	// different goroutines, and gorilla/websocket allows at most one
	// concurrent writer.
	writeMu sync.Mutex

	send chan wsMessage
	done chan struct{}
	once sync.Once
}

type wsMessage struct {
	messageType int
	data        []byte
}

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{
		conn: conn,
		id:   uuid.New().String()[:8],
		send: make(chan wsMessage, sendBufferSize),
		done: make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go c.writeLoop()
	return c
}

// ID returns this connection's short correlation id, for tagging log
// lines that span the lifetime of one socket.
func (c *wsConn) ID() string {
	return c.id
}

// SendBinary queues a binary frame for delivery. It never blocks the
// caller indefinitely: if the connection is already closing, the send is
// dropped.
func (c *wsConn) SendBinary(data []byte) error {
	return c.enqueue(websocket.BinaryMessage, data)
}

// SendText queues a text (JSON) frame for delivery.
func (c *wsConn) SendText(data []byte) error {
	return c.enqueue(websocket.TextMessage, data)
}

// enqueue never blocks the caller: a full send backlog means this
// connection's writer can't keep up with its peer, so the frame is
// dropped and the connection is torn down in the background instead of
// stalling whoever is fanning frames out (the runner's read loop, shared
// by every other viewer in the session).
func (c *wsConn) enqueue(messageType int, data []byte) error {
	select {
	case c.send <- wsMessage{messageType: messageType, data: data}:
		return nil
	case <-c.done:
		return nil
	default:
		log.Printf("[WARN] conn %s: send buffer full, disconnecting", c.id)
		go c.closeWithCode(closeCodeSendBufferFull, "send buffer full")
		return errSendBufferFull
	}
}

// Close stops the writer goroutine and closes the underlying connection.
func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.conn.Close()
}

// closeWithCode sends a WebSocket close frame with the given code and
// reason before tearing the connection down (used for 4004 "Session not
// found" and 4008 "send buffer full"). Guarded by the same once as Close
// so a concurrent overflow from multiple enqueue calls, or a Close
// racing an overflow, writes the close frame at most once.
func (c *wsConn) closeWithCode(code int, reason string) {
	c.once.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.WriteMessage(websocket.CloseMessage, msg)
		c.writeMu.Unlock()
		close(c.done)
	})
	c.conn.Close()
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.writeMu.Lock()
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				c.writeMu.Unlock()
				return
			}
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(msg.messageType, msg.data)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop runs the blocking read side on the caller's goroutine,
// dispatching each message to onBinary/onText until the connection
// closes or errors.
func (c *wsConn) readLoop(onBinary func([]byte), onText func([]byte)) {
	defer c.once.Do(func() { close(c.done) })

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WARN] conn %s: websocket read error: %v", c.id, err)
			}
			return
		}
		switch messageType {
		case websocket.BinaryMessage:
			if onBinary != nil {
				onBinary(data)
			}
		case websocket.TextMessage:
			if onText != nil {
				onText(data)
			}
		}
	}
}
