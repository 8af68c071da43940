package prompt

import (
	"strconv"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m InputModel, text string) InputModel {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var result []tea.Msg
		for _, c := range batch {
			result = append(result, run(c)...)
		}
		return result
	}
	return []tea.Msg{msg}
}

func focused(t *testing.T, params InputParams) InputModel {
	t.Helper()
	m := NewInputModel(params)
	m, _ = m.Update(focusMsg{})
	require.True(t, m.input.Focused())
	return m
}

func TestInputModel_Done(t *testing.T) {
	m := focused(t, InputParams{Label: "Rows:", PlaceHolder: "3"})
	m = typeText(m, "12")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, run(cmd), Done{Value: "12"})
	assert.True(t, m.done)
}

func TestInputModel_Placeholder(t *testing.T) {
	m := focused(t, InputParams{Label: "Rows:", PlaceHolder: "3"})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, run(cmd), Done{Value: "3"})
}

func TestInputModel_Validate(t *testing.T) {
	validate := func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return errors.New("enter a positive number")
		}
		return nil
	}
	m := focused(t, InputParams{Label: "Rows:", Validate: validate})
	m = typeText(m, "0")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotContains(t, run(cmd), Done{Value: "0"})
	assert.False(t, m.done)
	assert.Contains(t, m.View(), "enter a positive number")
}

func TestInputModel_Cancel(t *testing.T) {
	m := focused(t, InputParams{Label: "Image:"})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Contains(t, run(cmd), Canceled{})
	assert.True(t, m.done)
}
