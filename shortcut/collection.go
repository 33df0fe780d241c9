package shortcut

import (
	"fmt"
	"slices"
	"sync"

	"shortcut-panel/logging"
)

// Collection owns the in-memory list of one shortcut kind. Every mutation
// persists the whole list before it becomes visible; when the write fails
// the list is left untouched. Subscribers are notified after each change,
// outside the lock.
type Collection[T Record[T]] struct {
	kind  Kind
	store *Store[T]
	ids   *IDGenerator

	mu    sync.RWMutex
	items []T

	subMu   sync.Mutex
	subs    map[uint64]func(Change)
	nextSub uint64
}

// NewCollection loads the stored list.
func NewCollection[T Record[T]](kind Kind, store *Store[T], ids *IDGenerator) *Collection[T] {
	return &Collection[T]{
		kind:  kind,
		store: store,
		ids:   ids,
		items: store.Load(),
		subs:  make(map[uint64]func(Change)),
	}
}

// Kind returns which shortcut kind the collection holds.
func (c *Collection[T]) Kind() Kind {
	return c.kind
}

// Add assigns a fresh id to rec, appends it and persists.
func (c *Collection[T]) Add(rec T) (T, error) {
	rec = rec.WithID(c.ids.Next())

	c.mu.Lock()
	next := make([]T, len(c.items), len(c.items)+1)
	copy(next, c.items)
	next = append(next, rec)
	if err := c.store.Save(next); err != nil {
		c.mu.Unlock()
		var zero T
		return zero, fmt.Errorf("save %s shortcuts: %w", c.kind, err)
	}
	c.items = next
	c.mu.Unlock()

	logging.Info().Str("kind", string(c.kind)).Str("id", rec.ShortcutID()).Str("title", rec.ShortcutTitle()).Msg("shortcut added")
	c.notify(Change{Kind: c.kind, Op: OpAdded, ID: rec.ShortcutID(), Title: rec.ShortcutTitle()})
	return rec, nil
}

// List returns a copy of the records in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the record with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.ShortcutID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Delete removes the record with id and returns it. ErrNotFound leaves the
// collection and the store untouched.
func (c *Collection[T]) Delete(id string) (T, error) {
	var zero T

	c.mu.Lock()
	idx := -1
	for i, it := range c.items {
		if it.ShortcutID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := c.items[idx]
	next := make([]T, 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	if err := c.store.Save(next); err != nil {
		c.mu.Unlock()
		return zero, fmt.Errorf("save %s shortcuts: %w", c.kind, err)
	}
	c.items = next
	c.mu.Unlock()

	logging.Info().Str("kind", string(c.kind)).Str("id", id).Msg("shortcut deleted")
	c.notify(Change{Kind: c.kind, Op: OpDeleted, ID: id, Title: removed.ShortcutTitle()})
	return removed, nil
}

// Reload replaces the in-memory list with what the store holds, e.g. after
// the backing file was edited by hand.
func (c *Collection[T]) Reload() {
	items := c.store.Load()
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.notify(Change{Kind: c.kind, Op: OpReloaded})
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it.
func (c *Collection[T]) Subscribe(fn func(Change)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Collection[T]) notify(ch Change) {
	c.subMu.Lock()
	keys := make([]uint64, 0, len(c.subs))
	for k := range c.subs {
		keys = append(keys, k)
	}
	fns := make([]func(Change), 0, len(keys))
	slices.Sort(keys)
	for _, k := range keys {
		fns = append(fns, c.subs[k])
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}
