package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ptyrelay/relay/internal/codec"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{
		Token:           "test-token",
		CompressionMode: codec.ModeNone,
		SessionTTL:      30 * time.Minute,
		StatsInterval:   time.Minute,
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}

func TestViewerJoinUnknownSessionGetsCloseCode(t *testing.T) {
	_, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws?id=nonexistent&token=test-token"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected a close error, got %v", err)
	}
	if closeErr.Code != closeCodeSessionNotFound {
		t.Fatalf("close code = %d, want %d", closeErr.Code, closeCodeSessionNotFound)
	}
}

func TestRunnerAuthFailureRejectsUpgrade(t *testing.T) {
	_, ts := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/runner?token=wrong"), nil)
	if err == nil {
		t.Fatal("expected dial to fail for bad token")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 response, got %v", resp)
	}
}

func TestRunnerThenViewerSessionJoinFlow(t *testing.T) {
	_, ts := newTestServer(t)

	runnerConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/runner?token=test-token"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer runnerConn.Close()

	_, sessionMsg, err := runnerConn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(sessionMsg, &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed["type"] != "session" {
		t.Fatalf("first frame type = %v, want session", parsed["type"])
	}
	id, _ := parsed["id"].(string)
	if id == "" {
		t.Fatal("session frame missing id")
	}

	if err := runnerConn.WriteMessage(websocket.BinaryMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}

	viewerConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws?id="+id+"&token=test-token"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer viewerConn.Close()

	_, compressionMsg, err := viewerConn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	json.Unmarshal(compressionMsg, &parsed)
	if parsed["type"] != "compression" {
		t.Fatalf("expected compression frame, got %v", parsed["type"])
	}

	msgType, _, err := viewerConn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("expected binary snapshot frame, got message type %d", msgType)
	}

	_, readyMsg, err := viewerConn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	json.Unmarshal(readyMsg, &parsed)
	if parsed["type"] != "ready" {
		t.Fatalf("expected ready frame, got %v", parsed["type"])
	}
}
