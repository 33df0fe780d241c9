package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"shortcut-panel/dispatch"
	"shortcut-panel/logging"
)

var ErrNameTaken = errors.New("session name already in use")
var ErrNotFound = errors.New("session not found")

// SpawnFunc starts the process behind s and calls onExit with s.ID once it
// is gone.
type SpawnFunc func(s *Session, onExit func(string)) error

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	focused  string
	spawnFn  SpawnFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithShell runs shell with args in every new session.
func WithShell(shell string, args ...string) Option {
	return func(m *Manager) { m.spawnFn = ptySpawner(shell, args) }
}

// WithSpawnFn replaces process creation. Pass MockSpawnFn for a pipe-based
// in-process mock (no real PTY).
func WithSpawnFn(fn SpawnFunc) Option {
	return func(m *Manager) { m.spawnFn = fn }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{sessions: make(map[string]*Session)}
	for _, opt := range opts {
		opt(m)
	}
	if m.spawnFn == nil {
		m.spawnFn = ptySpawner(DefaultShell, DefaultShellArgs)
	}
	return m
}

// MockSpawnFn is an os.Pipe-based spawn function for testing.
// It wires a pipe so data written via WriteToPTY is echoed back as PTY output.
func MockSpawnFn(s *Session, onExit func(string)) error {
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	s.ptmx = w
	go func() {
		defer r.Close()
		buf := make([]byte, 4096)
		for {
			n, readErr := r.Read(buf)
			if n > 0 {
				s.publish(buf[:n])
			}
			if readErr != nil {
				if readErr != io.EOF {
					logging.Debug().Err(readErr).Str("session", s.ID).Msg("mock pipe closed")
				}
				s.markExited()
				onExit(s.ID)
				return
			}
		}
	}()
	return nil
}

// Create starts a session called name. Names are unique among live sessions.
func (m *Manager) Create(name string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nameTakenLocked(name) {
		return nil, ErrNameTaken
	}
	return m.spawnLocked(name)
}

// CreateUnique starts a session called label, or "label (2)", "label (3)"
// and so on when the label is already in use.
func (m *Manager) CreateUnique(label string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := label
	for n := 2; m.nameTakenLocked(name); n++ {
		name = fmt.Sprintf("%s (%d)", label, n)
	}
	return m.spawnLocked(name)
}

// Open starts a fresh terminal for a command shortcut run.
func (m *Manager) Open(label string) (dispatch.Terminal, error) {
	s, err := m.CreateUnique(label)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) nameTakenLocked(name string) bool {
	for _, s := range m.sessions {
		if s.Name == name {
			return true
		}
	}
	return false
}

func (m *Manager) spawnLocked(name string) (*Session, error) {
	s := &Session{
		ID:         uuid.New().String(),
		Name:       name,
		CreatedAt:  time.Now(),
		LastActive: time.Now(),
		scrollback: newScrollbackBuf(),
		done:       make(chan struct{}),
		onShow:     m.focus,
	}

	if err := m.spawnFn(s, m.remove); err != nil {
		return nil, fmt.Errorf("spawn session %q: %w", name, err)
	}

	m.sessions[s.ID] = s
	logging.Info().Str("session", s.ID).Str("name", name).Msg("session created")
	return s, nil
}

// List returns live sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Focused returns the session most recently brought to the foreground.
func (m *Manager) Focused() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[m.focused]
	return s, ok
}

func (m *Manager) focus(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		m.focused = id
	}
}

func (m *Manager) Kill(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}

	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	if s.ptmx != nil {
		s.ptmx.Close()
	}
	m.deleteLocked(id)
	logging.Info().Str("session", id).Msg("session killed")
	return nil
}

// Close kills every session.
func (m *Manager) Close() {
	for _, s := range m.List() {
		_ = m.Kill(s.ID)
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(id)
}

func (m *Manager) deleteLocked(id string) {
	delete(m.sessions, id)
	if m.focused == id {
		m.focused = ""
	}
}
