package api

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/creack/pty"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"shortcut-panel/logging"
	"shortcut-panel/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Terminal frames. Output and input payloads are base64.
const (
	frameOutput = "output"
	frameInput  = "input"
	frameResize = "resize"
	frameClosed = "closed"
)

type wsMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Cols uint16 `json:"cols,omitempty"`
	Rows uint16 `json:"rows,omitempty"`
}

// socket serializes writes; gorilla/websocket allows one writer at a time.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func upgrade(w http.ResponseWriter, r *http.Request) (*socket, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &socket{conn: conn}, nil
}

func (s *socket) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *socket) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *socket) output(p []byte) error {
	return s.send(wsMessage{Type: frameOutput, Data: base64.StdEncoding.EncodeToString(p)})
}

func (s *socket) Close() error {
	return s.conn.Close()
}

// handleWS attaches a client to a terminal session. Scrollback is replayed
// first, then live output is streamed while input and resize frames flow
// back to the PTY. A newer client for the same session displaces this one.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := h.app.Sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	sock, err := upgrade(w, r)
	if err != nil {
		logging.Warn().Err(err).Str("session", id).Msg("ws upgrade failed")
		return
	}
	defer sock.Close()

	out := make(chan []byte, 256)
	snap, kick := sess.Attach(out)
	defer sess.ClearClient(out)

	if len(snap) > 0 {
		if err := sock.output(snap); err != nil {
			logging.Warn().Err(err).Str("session", id).Msg("scrollback replay failed")
			return
		}
	}

	// ClearClient closes out, which ends the pump.
	go func() {
		for data := range out {
			if sock.output(data) != nil {
				return
			}
		}
	}()

	detached := make(chan struct{})
	defer close(detached)
	go func() {
		select {
		case <-sess.Done():
			_ = sock.send(wsMessage{Type: frameClosed})
			sock.Close()
		case <-kick:
			// The session lives on; no closed frame.
			sock.Close()
		case <-detached:
		}
	}()

	readTerminalInput(sock, sess)
}

// readTerminalInput applies client frames until the connection closes.
func readTerminalInput(sock *socket, sess *session.Session) {
	for {
		var msg wsMessage
		if err := sock.conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case frameInput:
			data, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				continue
			}
			if _, err := sess.WriteToPTY(data); err != nil {
				logging.Warn().Err(err).Str("session", sess.ID).Msg("pty write failed")
				return
			}
		case frameResize:
			if msg.Cols == 0 || msg.Rows == 0 {
				continue
			}
			if err := pty.Setsize(sess.PTY(), &pty.Winsize{Rows: msg.Rows, Cols: msg.Cols}); err != nil {
				logging.Debug().Err(err).Str("session", sess.ID).Msg("pty resize failed")
			}
		}
	}
}
