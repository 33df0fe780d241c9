package shortcut

import (
	"fmt"

	"shortcut-panel/dispatch"
	"shortcut-panel/kv"
	"shortcut-panel/logging"
)

// TerminalPrefix is prepended to a shortcut title to label its terminal.
const TerminalPrefix = "Shortcut - "

// TerminalOpener creates a fresh terminal for every execution.
type TerminalOpener interface {
	Open(label string) (dispatch.Terminal, error)
}

// CommandService manages command shortcuts and runs them in terminals.
type CommandService struct {
	shortcuts  *Collection[CommandShortcut]
	terminals  TerminalOpener
	dispatcher *dispatch.Dispatcher
}

func NewCommandService(backend kv.Store, ids *IDGenerator, terminals TerminalOpener, d *dispatch.Dispatcher) *CommandService {
	if d == nil {
		d = dispatch.New()
	}
	return &CommandService{
		shortcuts:  NewCollection(KindCommand, NewStore[CommandShortcut](backend, CommandKey), ids),
		terminals:  terminals,
		dispatcher: d,
	}
}

// Add stores a new command shortcut. Titles and command lists are taken as
// given; the interactive flow is what insists on a title and one command.
func (s *CommandService) Add(title string, commands []string, description string) (CommandShortcut, error) {
	if commands == nil {
		commands = []string{}
	}
	return s.shortcuts.Add(CommandShortcut{Title: title, Commands: commands, Description: description})
}

func (s *CommandService) List() []CommandShortcut {
	return s.shortcuts.List()
}

func (s *CommandService) Get(id string) (CommandShortcut, bool) {
	return s.shortcuts.Get(id)
}

func (s *CommandService) Delete(id string) (CommandShortcut, error) {
	return s.shortcuts.Delete(id)
}

func (s *CommandService) Reload() {
	s.shortcuts.Reload()
}

func (s *CommandService) Subscribe(fn func(Change)) func() {
	return s.shortcuts.Subscribe(fn)
}

// Execute opens a new terminal labelled after the shortcut and replays its
// commands. The first command is sent before Execute returns; the rest
// follow on the dispatcher's schedule.
func (s *CommandService) Execute(sc CommandShortcut) (*dispatch.Run, error) {
	label := TerminalPrefix + sc.Title
	term, err := s.terminals.Open(label)
	if err != nil {
		return nil, fmt.Errorf("open terminal %q: %w", label, err)
	}
	logging.Info().Str("id", sc.ID).Str("terminal", label).Int("commands", len(sc.Commands)).Msg("executing command shortcut")
	return s.dispatcher.Start(term, sc.Commands), nil
}

// ExecuteByID looks the shortcut up and executes it.
func (s *CommandService) ExecuteByID(id string) (*dispatch.Run, error) {
	sc, ok := s.shortcuts.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Execute(sc)
}
