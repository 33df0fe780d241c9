// Package shortcut implements the command and snippet shortcut collections:
// persistence, lifecycle, change notification and execution.
package shortcut

import (
	"errors"
	"strings"
)

// Keys under which each collection is persisted.
const (
	CommandKey = "commandShortcuts"
	SnippetKey = "snippetShortcuts"
)

var (
	ErrNotFound        = errors.New("shortcut not found")
	ErrNoActiveEditor  = errors.New("no active editor")
	ErrPatternMismatch = errors.New("snippet does not apply to this file type")
	ErrEditFailed      = errors.New("failed to insert snippet")
	ErrEmptyPattern    = errors.New("file type pattern is empty")
)

// Record is implemented by both shortcut kinds so a single Collection can
// own either of them.
type Record[T any] interface {
	ShortcutID() string
	ShortcutTitle() string
	WithID(id string) T
}

// CommandShortcut is a named sequence of shell commands.
type CommandShortcut struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Commands    []string `json:"command"`
	Description string   `json:"description"`
}

func (c CommandShortcut) ShortcutID() string    { return c.ID }
func (c CommandShortcut) ShortcutTitle() string { return c.Title }

func (c CommandShortcut) WithID(id string) CommandShortcut {
	c.ID = id
	c.Commands = append([]string(nil), c.Commands...)
	return c
}

// Summary joins the commands the way the side panel shows them.
func (c CommandShortcut) Summary() string {
	return strings.Join(c.Commands, " → ")
}

// SnippetShortcut is a text template scoped to a set of file extensions.
type SnippetShortcut struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	FileTypes   string `json:"fileTypes"`
	SnippetCode string `json:"snippetCode"`
	Description string `json:"description"`
}

func (s SnippetShortcut) ShortcutID() string    { return s.ID }
func (s SnippetShortcut) ShortcutTitle() string { return s.Title }

func (s SnippetShortcut) WithID(id string) SnippetShortcut {
	s.ID = id
	return s
}

// Pattern parses the snippet's file type pattern.
func (s SnippetShortcut) Pattern() Pattern {
	return ParsePattern(s.FileTypes)
}

// Kind names a shortcut collection.
type Kind string

const (
	KindCommand Kind = "command"
	KindSnippet Kind = "snippet"
)

// Op is the mutation that produced a Change.
type Op string

const (
	OpAdded    Op = "added"
	OpDeleted  Op = "deleted"
	OpReloaded Op = "reloaded"
)

// Change describes one collection mutation. ID and Title are empty for
// OpReloaded.
type Change struct {
	Kind  Kind   `json:"kind"`
	Op    Op     `json:"op"`
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}
