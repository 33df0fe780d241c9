// Package prompt drives the interactive creation of shortcuts.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned when the user backs out of a required prompt.
var ErrCancelled = errors.New("cancelled")

// DefaultFileTypes pre-fills the file type prompt.
const DefaultFileTypes = ".dart"

// Options describes one text prompt.
type Options struct {
	Placeholder string
	Hint        string
	Value       string
}

// Prompter asks for one line of text. ok is false when the user cancelled
// or left the answer blank.
type Prompter interface {
	PromptText(opts Options) (text string, ok bool, err error)
}

// CommandDraft is a command shortcut ready to be added.
type CommandDraft struct {
	Title       string
	Commands    []string
	Description string
}

// SnippetDraft is a snippet shortcut ready to be added.
type SnippetDraft struct {
	Title       string
	FileTypes   string
	Code        string
	Description string
}

// CommandFlow asks for a title, then commands until a blank answer, then an
// optional description. At least one command is required.
func CommandFlow(p Prompter) (CommandDraft, error) {
	title, ok, err := p.PromptText(Options{
		Placeholder: "Shortcut title",
		Hint:        "Enter a title for the command shortcut",
	})
	if err != nil || !ok {
		return CommandDraft{}, cancelled(err)
	}

	var commands []string
	for {
		n := len(commands) + 1
		cmd, ok, err := p.PromptText(Options{
			Placeholder: fmt.Sprintf("Command #%d", n),
			Hint:        fmt.Sprintf("Enter the command to run (command #%d). Leave blank to finish.", n),
		})
		if err != nil {
			return CommandDraft{}, err
		}
		if !ok {
			break
		}
		commands = append(commands, cmd)
	}
	if len(commands) == 0 {
		return CommandDraft{}, ErrCancelled
	}

	desc, err := optional(p, Options{
		Placeholder: "Description (optional)",
		Hint:        "Enter a description for the command",
	})
	if err != nil {
		return CommandDraft{}, err
	}
	return CommandDraft{Title: title, Commands: commands, Description: desc}, nil
}

// SnippetFlow asks for a title, the file types, the code and an optional
// description.
func SnippetFlow(p Prompter) (SnippetDraft, error) {
	title, ok, err := p.PromptText(Options{
		Placeholder: "Snippet title",
		Hint:        "Enter a title for the snippet shortcut",
	})
	if err != nil || !ok {
		return SnippetDraft{}, cancelled(err)
	}

	fileTypes, ok, err := p.PromptText(Options{
		Placeholder: ".dart,.ts,.js,*",
		Hint:        "Which file types the snippet applies to, comma separated. Use * for all files.",
		Value:       DefaultFileTypes,
	})
	if err != nil || !ok {
		return SnippetDraft{}, cancelled(err)
	}

	code, ok, err := p.PromptText(Options{
		Placeholder: "Snippet code",
		Hint:        "Enter the code to insert",
	})
	if err != nil || !ok || strings.TrimSpace(code) == "" {
		return SnippetDraft{}, cancelled(err)
	}

	desc, err := optional(p, Options{
		Placeholder: "Description (optional)",
		Hint:        "Enter a description for the snippet",
	})
	if err != nil {
		return SnippetDraft{}, err
	}
	return SnippetDraft{Title: title, FileTypes: fileTypes, Code: code, Description: desc}, nil
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func Confirm(p Prompter, question string) (bool, error) {
	answer, ok, err := p.PromptText(Options{Placeholder: "y/N", Hint: question})
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func optional(p Prompter, opts Options) (string, error) {
	text, ok, err := p.PromptText(opts)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return text, nil
}

func cancelled(err error) error {
	if err != nil {
		return err
	}
	return ErrCancelled
}

// Scripted answers prompts from a fixed list and records what was asked.
// An empty answer, or running out of answers, reads as a cancel.
type Scripted struct {
	Answers []string
	Asked   []Options
}

func (s *Scripted) PromptText(opts Options) (string, bool, error) {
	s.Asked = append(s.Asked, opts)
	if len(s.Answers) == 0 {
		return "", false, nil
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, answer != "", nil
}
