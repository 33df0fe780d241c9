// Package kv holds the key-value persistence port backing the shortcut
// collections and its file, SQLite and in-memory implementations.
package kv

import (
	"errors"
	"sync"
)

// ErrWatchUnsupported is returned by Watch on backends that cannot observe
// external modification.
var ErrWatchUnsupported = errors.New("store does not support watching")

// Store is an opaque get/set store addressed by string key. Values are
// serialized collections; a missing key reports ok=false with a nil error.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

var _ Store = (*MemoryStore)(nil)
