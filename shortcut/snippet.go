package shortcut

import (
	"fmt"
	"strings"

	"shortcut-panel/editor"
	"shortcut-panel/kv"
	"shortcut-panel/logging"
)

// SnippetService manages snippet shortcuts and inserts them into editors.
type SnippetService struct {
	shortcuts *Collection[SnippetShortcut]
}

func NewSnippetService(backend kv.Store, ids *IDGenerator) *SnippetService {
	return &SnippetService{
		shortcuts: NewCollection(KindSnippet, NewStore[SnippetShortcut](backend, SnippetKey), ids),
	}
}

// Add stores a new snippet. The file type pattern must contain at least one
// token.
func (s *SnippetService) Add(title, fileTypes, code, description string) (SnippetShortcut, error) {
	if len(ParsePattern(fileTypes)) == 0 {
		return SnippetShortcut{}, ErrEmptyPattern
	}
	return s.shortcuts.Add(SnippetShortcut{
		Title:       title,
		FileTypes:   strings.TrimSpace(fileTypes),
		SnippetCode: code,
		Description: description,
	})
}

func (s *SnippetService) List() []SnippetShortcut {
	return s.shortcuts.List()
}

func (s *SnippetService) Get(id string) (SnippetShortcut, bool) {
	return s.shortcuts.Get(id)
}

func (s *SnippetService) Delete(id string) (SnippetShortcut, error) {
	return s.shortcuts.Delete(id)
}

func (s *SnippetService) Reload() {
	s.shortcuts.Reload()
}

func (s *SnippetService) Subscribe(fn func(Change)) func() {
	return s.shortcuts.Subscribe(fn)
}

// Execute inserts the snippet at the editor's selection, replacing any
// selected text. The document is left untouched on every error.
func (s *SnippetService) Execute(sc SnippetShortcut, ed editor.Editor) error {
	if ed == nil {
		return ErrNoActiveEditor
	}
	doc, ok := ed.ActiveDocument()
	if !ok || doc == nil {
		return ErrNoActiveEditor
	}

	ext := doc.Extension()
	if !sc.Pattern().Matches(ext) {
		return fmt.Errorf("%w: %q only applies to %s", ErrPatternMismatch, sc.Title, sc.FileTypes)
	}

	if err := ed.ApplyEdit(doc, doc.Selection.Range(), sc.SnippetCode); err != nil {
		return fmt.Errorf("%w: %w", ErrEditFailed, err)
	}
	logging.Info().Str("id", sc.ID).Str("file", doc.FileName).Msg("snippet inserted")
	return nil
}

// ExecuteByID looks the snippet up and executes it.
func (s *SnippetService) ExecuteByID(id string, ed editor.Editor) error {
	sc, ok := s.shortcuts.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Execute(sc, ed)
}
