package prompt

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))

// TeaPrompter prompts on a terminal with a bubbles text input.
type TeaPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (t TeaPrompter) PromptText(opts Options) (string, bool, error) {
	var progOpts []tea.ProgramOption
	if t.In != nil {
		progOpts = append(progOpts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		progOpts = append(progOpts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(newInputModel(opts), progOpts...).Run()
	if err != nil {
		return "", false, err
	}
	m, ok := final.(inputModel)
	if !ok {
		return "", false, fmt.Errorf("unknown model type")
	}
	if m.cancelled || m.value == "" {
		return "", false, nil
	}
	return m.value, true, nil
}

type inputModel struct {
	input     textinput.Model
	hint      string
	value     string
	cancelled bool
}

func newInputModel(opts Options) inputModel {
	ti := textinput.New()
	ti.Placeholder = opts.Placeholder
	ti.SetValue(opts.Value)
	ti.CursorEnd()
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80
	return inputModel{input: ti, hint: opts.Hint}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if w := msg.Width - 4 - len(m.input.Prompt); w > 0 {
			m.input.Width = w
		}
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.value = m.input.Value()
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.value != "" || m.cancelled {
		return ""
	}
	view := m.input.View() + "\n"
	if m.hint != "" {
		view = hintStyle.Render(m.hint) + "\n" + view
	}
	return view
}
