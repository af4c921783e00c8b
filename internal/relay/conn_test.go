package relay

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// TestEnqueueDropsOnOverflowAndClosesConnection verifies that a full send
// backlog never blocks the caller: the frame is dropped and the
// connection is torn down with a 4008 close code instead.
func TestEnqueueDropsOnOverflowAndClosesConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverConnCh := make(chan *wsConn, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		// Built directly rather than via newWSConn so the writer goroutine
		// never drains the backlog, making the overflow deterministic.
		c := &wsConn{conn: raw, send: make(chan wsMessage, sendBufferSize), done: make(chan struct{})}
		serverConnCh <- c
		<-c.done
	}))
	defer ts.Close()

	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer clientConn.Close()

	c := <-serverConnCh
	for i := 0; i < sendBufferSize; i++ {
		c.send <- wsMessage{messageType: websocket.BinaryMessage, data: []byte("x")}
	}

	if err := c.SendBinary([]byte("overflow")); err != errSendBufferFull {
		t.Fatalf("SendBinary on a full backlog = %v, want errSendBufferFull", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = clientConn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected a close error, got %v", err)
	}
	if closeErr.Code != closeCodeSendBufferFull {
		t.Fatalf("close code = %d, want %d", closeErr.Code, closeCodeSendBufferFull)
	}
}
