// Package editor models the active document of the host editor and the
// capability to edit it.
package editor

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrOutOfBounds is returned for edits outside the document text.
	ErrOutOfBounds = errors.New("edit range out of bounds")
	// ErrStaleDocument is returned when an edit targets a document that is no
	// longer the active one.
	ErrStaleDocument = errors.New("document is no longer active")
)

// Range is a half-open span of rune offsets into a document.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) IsEmpty() bool { return r.Start == r.End }

// Selection is the user's selection; Active is the cursor end.
type Selection struct {
	Anchor int `json:"anchor"`
	Active int `json:"active"`
}

// Range returns the selection as an ordered range.
func (s Selection) Range() Range {
	if s.Anchor <= s.Active {
		return Range{Start: s.Anchor, End: s.Active}
	}
	return Range{Start: s.Active, End: s.Anchor}
}

func (s Selection) IsEmpty() bool { return s.Anchor == s.Active }

// Cursor returns an empty selection at offset.
func Cursor(offset int) Selection {
	return Selection{Anchor: offset, Active: offset}
}

// Document is a snapshot of an open text document.
type Document struct {
	FileName  string    `json:"fileName"`
	Text      string    `json:"text"`
	Selection Selection `json:"selection"`
}

// Extension is the file extension of the document.
func (d *Document) Extension() string {
	return Extension(d.FileName)
}

// Extension returns the part of the file's base name from its last '.',
// dot included. Names without a dot yield "".
func Extension(fileName string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return base[i:]
}

// Editor is the host capability to read the active document and edit it.
type Editor interface {
	ActiveDocument() (*Document, bool)
	ApplyEdit(doc *Document, r Range, text string) error
}

// Buffer is an in-memory Editor holding at most one active document.
type Buffer struct {
	mu  sync.Mutex
	doc *Document
}

// NewBuffer returns a buffer with doc active; nil means no active editor.
func NewBuffer(doc *Document) *Buffer {
	return &Buffer{doc: doc}
}

// ActiveDocument returns the active document.
func (b *Buffer) ActiveDocument() (*Document, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc, b.doc != nil
}

// ApplyEdit replaces r with text and leaves the cursor after the inserted text.
func (b *Buffer) ApplyEdit(doc *Document, r Range, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doc == nil || doc != b.doc {
		return ErrStaleDocument
	}
	runes := []rune(b.doc.Text)
	if r.Start < 0 || r.End < r.Start || r.End > len(runes) {
		return ErrOutOfBounds
	}

	var sb strings.Builder
	sb.WriteString(string(runes[:r.Start]))
	sb.WriteString(text)
	sb.WriteString(string(runes[r.End:]))
	b.doc.Text = sb.String()
	b.doc.Selection = Cursor(r.Start + len([]rune(text)))
	return nil
}

// Snapshot returns a copy of the active document.
func (b *Buffer) Snapshot() (Document, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doc == nil {
		return Document{}, false
	}
	return *b.doc, true
}

var _ Editor = (*Buffer)(nil)
