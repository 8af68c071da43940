package prompt

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
)

var ErrCanceled = errors.New("canceled")

// Input shows a single input prompt and returns the confirmed value.
func Input(ctx context.Context, in io.Reader, out io.Writer, params InputParams) (string, error) {
	model := standaloneModel{input: NewInputModel(params)}
	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	result, err := program.Run()
	if err != nil {
		return "", errors.Wrap(err, "failed to run prompt")
	}

	final := result.(standaloneModel)
	if final.canceled {
		return "", ErrCanceled
	}
	return final.value, nil
}

type standaloneModel struct {
	input    InputModel
	value    string
	canceled bool
}

func (m standaloneModel) Init() tea.Cmd {
	return tea.Batch(m.input.Init(), m.input.Focus())
}

func (m standaloneModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) { // revive:disable-line
	case Done:
		m.value = msg.Value
		return m, tea.Quit
	case Canceled:
		m.canceled = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m standaloneModel) View() string {
	if m.input.done {
		return ""
	}
	return m.input.View() + "\n"
}
