// Package prompt implements the terminal prompts used to confirm the payload
// of table and image insertions.
package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/blueeyes/writer/internal/log"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF0000"})
)

type InputModel struct {
	Text     string
	done     bool
	input    textinput.Model
	validate func(string) error
	err      error
	log      *zap.Logger
}

type InputParams struct {
	Label       string
	Value       string
	PlaceHolder string
	// Validate rejects a value; the prompt stays open showing the error.
	Validate func(string) error
}

func NewInputModel(ip InputParams) InputModel {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = ip.PlaceHolder
	input.SetValue(ip.Value)

	return InputModel{
		Text:     ip.Label,
		input:    input,
		validate: ip.Validate,
		log:      log.Get().Named("prompt.InputModel"),
	}
}

func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m InputModel) Focus() tea.Cmd {
	return func() tea.Msg { return focusMsg{} }
}

func (m InputModel) Update(msg tea.Msg) (InputModel, tea.Cmd) {
	var (
		cmds []tea.Cmd
		cmd  tea.Cmd
	)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	switch msg := msg.(type) { // revive:disable-line
	case tea.KeyMsg:
		if m.done || !m.input.Focused() {
			break
		}

		switch msg.Type {
		case tea.KeyEnter:
			value := m.input.Value()
			if value == "" {
				value = m.input.Placeholder
			}
			if m.validate != nil {
				if err := m.validate(value); err != nil {
					m.log.Debug("rejected value", zap.String("value", value), zap.Error(err))
					m.err = err
					break
				}
			}
			m.err = nil
			m.done = true
			m.input.Blur()
			cmds = append(cmds, func() tea.Msg { return Done{Value: value} })
		case tea.KeyEsc, tea.KeyCtrlC:
			m.done = true
			m.input.Blur()
			cmds = append(cmds, func() tea.Msg { return Canceled{} })
		}

	case focusMsg:
		cmds = append(cmds, m.input.Focus())
	}

	return m, tea.Batch(cmds...)
}

func (m InputModel) View() string {
	var b strings.Builder
	_, _ = b.WriteString(labelStyle.Render(m.Text) + " " + m.input.View())
	if m.err != nil {
		_, _ = b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	return b.String()
}

type focusMsg struct{}

type Done struct {
	Value string
}

type Canceled struct{}
