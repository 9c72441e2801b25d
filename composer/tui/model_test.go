package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/composer"
)

const hint = "Say something"

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func send(t *testing.T, m *Model, msgs ...tea.Msg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		require.Same(t, m, next)
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func newModel(onComplete composer.CompleteFunc) *Model {
	return New(composer.Options{
		Header:      "Respond to post",
		Placeholder: hint,
		OnComplete:  onComplete,
	}, DefaultTheme())
}

func TestNewModel(t *testing.T) {
	m := newModel(nil)

	assert.Equal(t, focusAuthor, m.focus)
	assert.Equal(t, composer.AuthorPlaceholder, m.author.Placeholder)
	assert.Equal(t, composer.Placeholder, m.Screen().Message().Mode())
	assert.Equal(t, hint, m.message.Text())
	assert.Equal(t, composer.Dimmed, m.message.style)
	assert.Equal(t, 0, m.message.cursor)

	view := m.View()
	assert.Contains(t, view, "Respond to post")
	assert.Contains(t, view, "ay something")
}

func TestTypingInMessage(t *testing.T) {
	m := newModel(nil)
	send(t, m, key(tea.KeyTab), runes("H"))

	assert.Equal(t, focusMessage, m.focus)
	assert.Equal(t, composer.Editing, m.Screen().Message().Mode())
	assert.Equal(t, "H", m.message.Text())
	assert.Equal(t, composer.Normal, m.message.style)

	send(t, m, runes("i"), key(tea.KeyEnter), runes("there"))
	assert.Equal(t, "Hi\nthere", m.Screen().Message().Message())

	send(t, m, key(tea.KeyCtrlU))
	assert.Equal(t, composer.Placeholder, m.Screen().Message().Mode())
	assert.Equal(t, hint, m.message.Text())
}

func TestBackspaceRestoresPlaceholder(t *testing.T) {
	m := newModel(nil)
	send(t, m, key(tea.KeyTab), runes("ok"))

	send(t, m, key(tea.KeyBackspace))
	assert.Equal(t, "o", m.message.Text())

	send(t, m, key(tea.KeyBackspace))
	assert.Equal(t, composer.Placeholder, m.Screen().Message().Mode())
	assert.Equal(t, hint, m.message.Text())
	assert.Equal(t, 0, m.message.cursor)

	send(t, m, key(tea.KeyBackspace), key(tea.KeyDelete))
	assert.Equal(t, hint, m.message.Text())
}

func TestCursorPinnedInPlaceholder(t *testing.T) {
	m := newModel(nil)
	send(t, m, key(tea.KeyTab), key(tea.KeyRight), key(tea.KeyRight), key(tea.KeyEnd))
	assert.Equal(t, 0, m.message.cursor)

	send(t, m, runes("abc"), key(tea.KeyLeft), key(tea.KeyLeft))
	assert.Equal(t, 1, m.message.cursor)

	send(t, m, runes("X"))
	assert.Equal(t, "aXbc", m.message.Text())
}

func TestFocusSwitching(t *testing.T) {
	m := newModel(nil)
	send(t, m, runes("Dan"), key(tea.KeyTab))
	assert.Equal(t, "Dan", m.author.Value())
	assert.False(t, m.author.Focused())

	// Typing goes to the message now.
	send(t, m, runes("x"))
	assert.Equal(t, "Dan", m.author.Value())
	assert.Equal(t, "x", m.message.Text())

	send(t, m, key(tea.KeyShiftTab))
	assert.Equal(t, focusAuthor, m.focus)
	assert.True(t, m.author.Focused())
	assert.Equal(t, composer.Editing, m.Screen().Message().Mode())
}

// saveResult runs the commands returned for ctrl+s and returns the
// completion answer they produce.
func saveResult(t *testing.T, cmd tea.Cmd) saveResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	pending := []tea.Cmd{cmd}
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			pending = append(pending, msg...)
		case saveResultMsg:
			return msg
		}
	}
	t.Fatal("no save result produced")
	return saveResultMsg{}
}

func TestSaveAccepted(t *testing.T) {
	var gotAuthor, gotMessage string
	m := newModel(func(author, message string) bool {
		gotAuthor, gotMessage = author, message
		return true
	})
	send(t, m, runes("Dan"), key(tea.KeyTab), runes("Hello"))

	result := saveResult(t, send(t, m, key(tea.KeyCtrlS)))
	assert.True(t, result.accepted)
	assert.Equal(t, "Dan", gotAuthor)
	assert.Equal(t, "Hello", gotMessage)

	cmd := send(t, m, result)
	assert.True(t, isQuit(cmd))
	assert.True(t, m.Saved())
	assert.True(t, m.Screen().Dismissed())
	assert.Empty(t, m.View())
}

func TestSaveInPlaceholderSendsEmptyMessage(t *testing.T) {
	gotMessage := "unset"
	m := newModel(func(_, message string) bool {
		gotMessage = message
		return false
	})

	result := saveResult(t, send(t, m, key(tea.KeyCtrlS)))
	assert.Equal(t, "", gotMessage)

	cmd := send(t, m, result)
	assert.False(t, isQuit(cmd))
	assert.False(t, m.Saved())
	assert.False(t, m.Screen().Dismissed())
	assert.Contains(t, m.View(), "ay something")
}

func TestEditingBlockedWhileSaving(t *testing.T) {
	calls := 0
	m := newModel(func(string, string) bool { calls++; return false })
	send(t, m, key(tea.KeyTab), runes("Hi"))

	pending := send(t, m, key(tea.KeyCtrlS))
	require.NotNil(t, pending)
	assert.True(t, m.saving)
	assert.Contains(t, m.View(), "saving...")

	send(t, m, runes("!"), key(tea.KeyBackspace))
	assert.Nil(t, send(t, m, key(tea.KeyCtrlS)), "a second save waits for the first")
	assert.Equal(t, "Hi", m.message.Text())

	send(t, m, saveResult(t, pending))
	assert.Equal(t, 1, calls)
	assert.False(t, m.saving)
	send(t, m, runes("!"))
	assert.Equal(t, "Hi!", m.message.Text())
}

func TestSaveWithoutCallbackDoesNothing(t *testing.T) {
	m := newModel(nil)
	assert.Nil(t, send(t, m, key(tea.KeyCtrlS)))
	assert.False(t, m.saving)
}

func TestEscCancels(t *testing.T) {
	called := false
	m := newModel(func(string, string) bool { called = true; return true })

	cmd := send(t, m, key(tea.KeyEsc))
	assert.True(t, isQuit(cmd))
	assert.True(t, m.Screen().Dismissed())
	assert.False(t, called)
}

func TestWindowSize(t *testing.T) {
	m := newModel(nil)
	send(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Equal(t, 60, m.width)
	assert.NotEmpty(t, m.View())
}
