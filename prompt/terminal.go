package prompt

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

var questionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7D56F4"))

// TerminalPrompter asks through a one-line bubbletea input
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalPrompter creates a prompter bound to a terminal
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

// Ask runs the input until enter or ctrl+c
func (p *TerminalPrompter) Ask(ctx context.Context, question string) (Answer, error) {
	program := tea.NewProgram(newPromptModel(question),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithoutSignalHandler(),
	)

	final, err := program.Run()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return Stop, ErrInterrupted
		}
		return Stop, errors.Wrap(err, "prompt")
	}

	m, ok := final.(promptModel)
	if !ok || m.interrupted {
		return Stop, ErrInterrupted
	}
	return ParseAnswer(m.answer), nil
}

type promptModel struct {
	input       textinput.Model
	question    string
	answer      string
	done        bool
	interrupted bool
}

func newPromptModel(question string) promptModel {
	ti := textinput.New()
	ti.Prompt = questionStyle.Render(question) + " "
	ti.CharLimit = 16
	ti.Width = 8
	ti.Focus()

	return promptModel{input: ti, question: question}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC:
			m.interrupted = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			// end of input, same as an empty reply
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.answer = m.input.Value()
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.interrupted {
		// keep the question and reply on screen after the program exits
		return m.question + " " + m.answer + "\n"
	}
	return m.input.View()
}
