package shortcut

import (
	"encoding/json"

	"shortcut-panel/kv"
	"shortcut-panel/logging"
)

// Store loads and saves a whole collection of T under one key. There are no
// partial updates: every Save overwrites the previous snapshot.
type Store[T any] struct {
	backend kv.Store
	key     string
}

func NewStore[T any](backend kv.Store, key string) *Store[T] {
	return &Store[T]{backend: backend, key: key}
}

// Key returns the key the collection is stored under.
func (s *Store[T]) Key() string {
	return s.key
}

// Load returns the stored collection. An absent key, a backend error or a
// malformed payload all yield an empty collection; failures are logged.
func (s *Store[T]) Load() []T {
	data, ok, err := s.backend.Get(s.key)
	if err != nil {
		logging.Error().Err(err).Str("key", s.key).Msg("failed to read shortcuts, starting empty")
		return []T{}
	}
	if !ok {
		logging.Debug().Str("key", s.key).Msg("no stored shortcuts")
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logging.Error().Err(err).Str("key", s.key).Msg("stored shortcuts are malformed, starting empty")
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	logging.Debug().Str("key", s.key).Int("count", len(items)).Msg("loaded shortcuts")
	return items
}

// Save writes items as the complete collection.
func (s *Store[T]) Save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.backend.Set(s.key, data)
}
