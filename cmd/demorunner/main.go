// Command demorunner is a minimal reference runner client: it spawns a
// shell in a PTY, streams the PTY output over a WebSocket connection to a
// relay server's /runner endpoint, and feeds the PTY from local stdin.
// Frames the relay sends after the initial session frame (such as viewer
// keystrokes) are not read.
package main

import (
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/ptyrelay/relay/internal/codec"
)

type controlMessage struct {
	Type        string `json:"type"`
	ID          string `json:"id,omitempty"`
	Compression string `json:"compression,omitempty"`
	Cols        int    `json:"cols,omitempty"`
	Rows        int    `json:"rows,omitempty"`
}

func main() {
	var (
		addr    = flag.String("addr", "localhost:3000", "relay server host:port")
		token   = flag.String("token", "", "shared auth token")
		id      = flag.String("id", "", "request a specific session id")
		shellEnv = flag.String("shell", "", "shell to run (defaults to $SHELL)")
		insecure = flag.Bool("insecure-tls", false, "skip TLS certificate verification (wss://)")
	)
	flag.Parse()

	shell := *shellEnv
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}

	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		log.Fatalf("start PTY: %v", err)
	}
	defer ptmx.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
			pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(h), Cols: uint16(w)})
		}
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			log.Fatalf("set raw mode: %v", err)
		}
		defer term.Restore(int(os.Stdin.Fd()), oldState)
	}

	q := url.Values{}
	q.Set("token", *token)
	if *id != "" {
		q.Set("id", *id)
	}
	scheme := "ws"
	dialer := *websocket.DefaultDialer
	if *insecure {
		scheme = "wss"
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	u := url.URL{Scheme: scheme, Host: *addr, Path: "/runner", RawQuery: q.Encode()}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial relay: %v", err)
	}
	defer conn.Close()

	_, sessionMsg, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("read session frame: %v", err)
	}
	var sessionInfo controlMessage
	if err := json.Unmarshal(sessionMsg, &sessionInfo); err != nil {
		log.Fatalf("parse session frame: %v", err)
	}
	mode, err := codec.ParseMode(sessionInfo.Compression)
	if err != nil {
		log.Fatalf("unsupported compression mode %q: %v", sessionInfo.Compression, err)
	}
	c, err := codec.New(mode)
	if err != nil {
		log.Fatalf("init codec: %v", err)
	}
	fmt.Fprintf(os.Stderr, "session %s (compression=%s)\r\n", sessionInfo.ID, mode)

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go watchResize(ptmx, conn, winch)

	done := make(chan struct{})
	go pumpOutput(ptmx, conn, c, done)
	go pumpStdin(ptmx)

	go func() {
		cmd.Wait()
		conn.WriteJSON(controlMessage{Type: "exit"})
		close(done)
	}()

	<-done
}

func watchResize(ptmx *os.File, conn *websocket.Conn, winch <-chan os.Signal) {
	for range winch {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			continue
		}
		w, h, err := term.GetSize(int(os.Stdin.Fd()))
		if err != nil {
			continue
		}
		if err := pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(h), Cols: uint16(w)}); err != nil {
			log.Printf("resize PTY: %v", err)
			continue
		}
		conn.WriteJSON(controlMessage{Type: "resize", Cols: w, Rows: h})
	}
}

func pumpOutput(ptmx *os.File, conn *websocket.Conn, c *codec.Codec, done chan struct{}) {
	buf := make([]byte, 32*1024)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			compressed, cErr := c.Compress(buf[:n])
			if cErr != nil {
				log.Printf("compress output: %v", cErr)
				continue
			}
			if wErr := conn.WriteMessage(websocket.BinaryMessage, compressed); wErr != nil {
				log.Printf("write output frame: %v", wErr)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("read PTY: %v", err)
			}
			return
		}
	}
}

func pumpStdin(ptmx *os.File) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if _, wErr := ptmx.Write(buf[:n]); wErr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
