package session

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"
)

const maxScrollback = 1 << 20 // 1MB

// ErrExited is returned when writing to a session whose shell is gone.
var ErrExited = errors.New("session has exited")

type Session struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Connected  bool      `json:"connected"`

	cmd        *exec.Cmd
	ptmx       *os.File
	scrollback *scrollbackBuf
	outChan    chan []byte
	kickChan   chan struct{}
	outMu      sync.Mutex
	done       chan struct{}
	doneOnce   sync.Once
	onShow     func(id string)
}

type scrollbackBuf struct {
	mu   sync.Mutex
	data []byte
	max  int
}

func newScrollbackBuf() *scrollbackBuf {
	return &scrollbackBuf{max: maxScrollback}
}

func (s *scrollbackBuf) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, p...)
	if len(s.data) > s.max {
		excess := len(s.data) - s.max
		s.data = s.data[excess:]
	}
}

func (s *scrollbackBuf) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil
	}
	cp := make([]byte, len(s.data))
	copy(cp, s.data)
	return cp
}

// publish records PTY output and forwards it to the attached client, if any.
// Both happen under outMu so Attach sees every chunk exactly once.
func (s *Session) publish(p []byte) {
	data := make([]byte, len(p))
	copy(data, p)

	s.outMu.Lock()
	s.scrollback.Write(data)
	s.LastActive = time.Now()
	if s.outChan != nil {
		select {
		case s.outChan <- data:
		default:
		}
	}
	s.outMu.Unlock()
}

func (s *Session) markExited() {
	s.doneOnce.Do(func() { close(s.done) })
}

type sessionJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Connected  bool      `json:"connected"`
}

// MarshalJSON encodes a snapshot taken under outMu; LastActive and
// Connected change while output flows.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.outMu.Lock()
	v := sessionJSON{
		ID:         s.ID,
		Name:       s.Name,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
		Connected:  s.Connected,
	}
	s.outMu.Unlock()
	return json.Marshal(v)
}

// SetClient registers a channel to receive live PTY output. A previously
// connected client is kicked: its kick channel is closed so the WebSocket
// handler can close that connection. The returned channel is closed if this
// client is itself displaced later.
func (s *Session) SetClient(ch chan []byte) <-chan struct{} {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return s.setClientLocked(ch)
}

// Attach is SetClient plus the scrollback at the moment ch was registered.
// Output in the snapshot is never also delivered on ch.
func (s *Session) Attach(ch chan []byte) (snapshot []byte, kick <-chan struct{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	kick = s.setClientLocked(ch)
	return s.scrollback.Snapshot(), kick
}

func (s *Session) setClientLocked(ch chan []byte) <-chan struct{} {
	if s.kickChan != nil {
		close(s.kickChan)
	}
	kick := make(chan struct{})
	s.kickChan = kick
	s.outChan = ch
	s.Connected = true
	return kick
}

// ClearClient is called when a connection ends. Session state only changes
// if ch is still the current owner, so a displaced connection cannot clear a
// newer one. ch is always closed.
func (s *Session) ClearClient(ch chan []byte) {
	s.outMu.Lock()
	owned := s.outChan == ch
	if owned {
		s.outChan = nil
		s.Connected = false
		s.kickChan = nil
	}
	s.outMu.Unlock()
	close(ch)
}

// ScrollbackSnapshot returns a copy of the scrollback buffer.
func (s *Session) ScrollbackSnapshot() []byte {
	return s.scrollback.Snapshot()
}

// Done returns a channel that is closed when the shell exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Exited reports whether the shell is gone.
func (s *Session) Exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// WriteToPTY writes input bytes to the PTY master.
func (s *Session) WriteToPTY(p []byte) (int, error) {
	if s.Exited() {
		return 0, ErrExited
	}
	return s.ptmx.Write(p)
}

// PTY returns the PTY master file for pty.Setsize calls.
func (s *Session) PTY() *os.File {
	return s.ptmx
}

// Show brings the session to the foreground of its manager.
func (s *Session) Show() {
	if s.onShow != nil {
		s.onShow(s.ID)
	}
}

// SendLine types text followed by a newline into the shell.
func (s *Session) SendLine(text string) error {
	_, err := s.WriteToPTY([]byte(text + "\n"))
	return err
}
