// Package tree builds the side panel view of both shortcut collections.
package tree

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"shortcut-panel/shortcut"
)

// Node kinds, used by hosts to pick icons and actions.
const (
	KindCommandCategory = "commandCategory"
	KindSnippetCategory = "snippetCategory"
	KindCommand         = "commandShortcut"
	KindSnippet         = "snippetShortcut"
)

const (
	CommandCategoryLabel       = "Command Shortcuts"
	CommandCategoryDescription = "Frequently used commands"
	SnippetCategoryLabel       = "Snippet Shortcuts"
	SnippetCategoryDescription = "Frequently used code snippets"
)

// Node is a category or a shortcut entry.
type Node struct {
	ID          string `json:"id,omitempty"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Tooltip     string `json:"tooltip"`
	Children    []Node `json:"children,omitempty"`
}

func newNode(id, kind, label, description string) Node {
	return Node{
		ID:          id,
		Kind:        kind,
		Label:       label,
		Description: description,
		Tooltip:     label + " - " + description,
	}
}

// Build returns the two root categories, commands first.
func Build(commands []shortcut.CommandShortcut, snippets []shortcut.SnippetShortcut) []Node {
	cmdRoot := newNode("", KindCommandCategory, CommandCategoryLabel, CommandCategoryDescription)
	for _, c := range commands {
		desc := c.Description
		if desc == "" {
			desc = c.Summary()
		}
		cmdRoot.Children = append(cmdRoot.Children, newNode(c.ID, KindCommand, c.Title, desc))
	}

	snipRoot := newNode("", KindSnippetCategory, SnippetCategoryLabel, SnippetCategoryDescription)
	for _, s := range snippets {
		desc := s.Description
		if desc == "" {
			desc = "File types: " + s.FileTypes
		}
		snipRoot.Children = append(snipRoot.Children, newNode(s.ID, KindSnippet, s.Title, desc))
	}
	return []Node{cmdRoot, snipRoot}
}

// CommandSource and SnippetSource are the collections the view follows.
type CommandSource interface {
	List() []shortcut.CommandShortcut
	Subscribe(fn func(shortcut.Change)) func()
}

type SnippetSource interface {
	List() []shortcut.SnippetShortcut
	Subscribe(fn func(shortcut.Change)) func()
}

// View holds the current tree and rebuilds it whenever either collection
// changes.
type View struct {
	commands CommandSource
	snippets SnippetSource

	mu     sync.RWMutex
	roots  []Node
	unsubs []func()
}

func NewView(commands CommandSource, snippets SnippetSource) *View {
	v := &View{commands: commands, snippets: snippets}
	v.rebuild()
	onChange := func(shortcut.Change) { v.rebuild() }
	v.unsubs = []func(){commands.Subscribe(onChange), snippets.Subscribe(onChange)}
	return v
}

func (v *View) rebuild() {
	roots := Build(v.commands.List(), v.snippets.List())
	v.mu.Lock()
	v.roots = roots
	v.mu.Unlock()
}

// Roots returns the current root nodes.
func (v *View) Roots() []Node {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.roots
}

func (v *View) Close() {
	for _, u := range v.unsubs {
		u()
	}
}

var (
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BFFF"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B6B6B"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C49C7B"))
)

// Render draws the tree for a terminal. Shortcut ids are shown so they can
// be passed back to the CLI.
func Render(roots []Node) string {
	var sb strings.Builder
	for i, root := range roots {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(categoryStyle.Render(root.Label))
		sb.WriteString("  ")
		sb.WriteString(descStyle.Render(root.Description))
		sb.WriteString("\n")
		if len(root.Children) == 0 {
			sb.WriteString("  " + descStyle.Render("(empty)") + "\n")
			continue
		}
		for j, child := range root.Children {
			branch := "├─ "
			if j == len(root.Children)-1 {
				branch = "└─ "
			}
			sb.WriteString(branch)
			sb.WriteString(labelStyle.Render(child.Label))
			sb.WriteString(" ")
			sb.WriteString(idStyle.Render("[" + child.ID + "]"))
			sb.WriteString("  ")
			sb.WriteString(descStyle.Render(child.Description))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
