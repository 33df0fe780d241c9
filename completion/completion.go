// Package completion offers snippet shortcuts as editor completion items.
package completion

import (
	"sync"

	"shortcut-panel/editor"
	"shortcut-panel/logging"
	"shortcut-panel/shortcut"
)

const (
	// KindSnippet is the completion kind reported for every item.
	KindSnippet = "snippet"
	// DefaultDocumentation is used when a snippet has no description.
	DefaultDocumentation = "Shortcut snippet"
	detailPrefix         = "Shortcuts: "
)

// Item is one completion proposal.
type Item struct {
	Label         string `json:"label"`
	InsertText    string `json:"insertText"`
	Documentation string `json:"documentation"`
	Detail        string `json:"detail"`
	Kind          string `json:"kind"`
}

// Source is what the bridge reads snippets from.
type Source interface {
	List() []shortcut.SnippetShortcut
	Subscribe(fn func(shortcut.Change)) func()
}

// Bridge keeps a snapshot of the snippet collection. The snapshot is only
// refreshed when the source reports a change.
type Bridge struct {
	mu       sync.RWMutex
	snippets []shortcut.SnippetShortcut
	unsub    func()
}

// NewBridge takes an initial snapshot of src and follows its changes.
func NewBridge(src Source) *Bridge {
	b := &Bridge{snippets: src.List()}
	b.unsub = src.Subscribe(func(shortcut.Change) {
		b.Refresh(src.List())
	})
	return b
}

// Refresh replaces the snapshot.
func (b *Bridge) Refresh(snippets []shortcut.SnippetShortcut) {
	b.mu.Lock()
	b.snippets = snippets
	b.mu.Unlock()
	logging.Debug().Int("snippets", len(snippets)).Msg("completion snapshot refreshed")
}

// Close stops following the source.
func (b *Bridge) Close() {
	if b.unsub != nil {
		b.unsub()
	}
}

// Complete returns one item per snippet applicable to fileName, in
// declaration order. The position is accepted for parity with editor
// completion requests; items do not depend on it.
func (b *Bridge) Complete(fileName string, position int) []Item {
	ext := editor.Extension(fileName)

	b.mu.RLock()
	defer b.mu.RUnlock()
	items := make([]Item, 0, len(b.snippets))
	for _, sn := range b.snippets {
		if !sn.Pattern().Matches(ext) {
			continue
		}
		doc := sn.Description
		if doc == "" {
			doc = DefaultDocumentation
		}
		items = append(items, Item{
			Label:         sn.Title,
			InsertText:    sn.SnippetCode,
			Documentation: doc,
			Detail:        detailPrefix + sn.Title,
			Kind:          KindSnippet,
		})
	}
	return items
}
