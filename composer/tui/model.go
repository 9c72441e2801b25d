// Package tui renders the response composer in a terminal with Bubble Tea.
package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"postboard/composer"
)

type focus int

const (
	focusAuthor focus = iota
	focusMessage
)

const helpText = "tab: switch field • ctrl+s: save • esc: cancel"

// saveResultMsg carries the answer of OnComplete back into Update.
type saveResultMsg struct {
	accepted bool
}

// Model hosts a composer.Screen. It is a pointer model because the screen
// reads the author input through it.
//
// OnComplete runs in a tea.Cmd so a slow server does not freeze the form.
// Editing is blocked until it answers.
type Model struct {
	screen  *composer.Screen
	author  textinput.Model
	message *messageBuffer
	spinner spinner.Model
	focus   focus
	theme   Theme
	width   int
	saving  bool
	saved   bool
}

type authorText struct{ m *Model }

func (a authorText) Text() string { return a.m.author.Value() }

// New builds the composer with the author field focused.
func New(opts composer.Options, theme Theme) *Model {
	author := textinput.New()
	author.Placeholder = composer.AuthorPlaceholder
	author.PlaceholderStyle = theme.Placeholder
	author.CharLimit = 255
	author.Prompt = ""
	author.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Help

	m := &Model{author: author, message: &messageBuffer{}, spinner: sp, theme: theme}
	m.screen = composer.NewScreen(opts, authorText{m}, m.message)
	m.message.onSelect = func() {
		m.screen.Message().Handle(composer.SelectionChanged{})
	}
	return m
}

// Screen exposes the form state.
func (m *Model) Screen() *composer.Screen { return m.screen }

// Saved reports whether OnComplete accepted the form.
func (m *Model) Saved() bool { return m.saved }

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case saveResultMsg:
		m.saving = false
		if m.screen.Resolve(msg.accepted) {
			m.saved = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.screen.Cancel()
			return m, tea.Quit
		}
		if m.saving {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlS:
			return m, m.save()
		case tea.KeyTab, tea.KeyShiftTab:
			return m, m.toggleFocus()
		}

		if m.focus == focusMessage {
			m.handleMessageKey(msg)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.author, cmd = m.author.Update(msg)
	return m, cmd
}

// save snapshots the form and hands it to OnComplete off the event loop.
func (m *Model) save() tea.Cmd {
	complete := m.screen.OnComplete()
	if complete == nil || m.screen.Dismissed() {
		return nil
	}
	author, message := m.screen.Submission()
	m.saving = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return saveResultMsg{accepted: complete(author, message)}
	})
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusAuthor {
		m.author.Blur()
		m.focus = focusMessage
		m.screen.Message().Handle(composer.FocusGained{})
		return nil
	}
	m.screen.Message().Handle(composer.FocusLost{})
	m.focus = focusAuthor
	return m.author.Focus()
}

func (m *Model) handleMessageKey(msg tea.KeyMsg) {
	b := m.message
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		m.edit(composer.Range{Location: b.cursor}, string(msg.Runes))
	case tea.KeyEnter:
		m.edit(composer.Range{Location: b.cursor}, "\n")
	case tea.KeyBackspace:
		if b.cursor == 0 {
			m.edit(composer.Range{}, "")
			return
		}
		m.edit(composer.Range{Location: b.cursor - 1, Length: 1}, "")
	case tea.KeyDelete:
		m.edit(composer.Range{Location: b.cursor, Length: min(1, len(b.text)-b.cursor)}, "")
	case tea.KeyCtrlU:
		m.edit(composer.Range{Length: utf8.RuneCountInString(b.Text())}, "")
	case tea.KeyLeft:
		b.moveTo(b.cursor - 1)
	case tea.KeyRight:
		b.moveTo(b.cursor + 1)
	case tea.KeyHome, tea.KeyCtrlA:
		b.moveTo(0)
	case tea.KeyEnd, tea.KeyCtrlE:
		b.moveTo(len(b.text))
	}
}

// edit asks the field first and applies the change only when it is allowed.
func (m *Model) edit(r composer.Range, text string) {
	out := m.screen.Message().Handle(composer.ContentChange{Range: r, Text: text})
	if out.Allow {
		m.message.replace(out.Edit, text)
	}
}

func (m *Model) View() string {
	if m.screen.Dismissed() {
		return ""
	}
	t := m.theme

	box := func(focused bool, content string) string {
		style := t.Blurred
		if focused {
			style = t.Focused
		}
		if m.width > 4 {
			style = style.Width(m.width - 4)
		}
		return style.Render(content)
	}

	textStyle := t.Message
	if m.message.style == composer.Dimmed {
		textStyle = t.Placeholder
	}

	var sb strings.Builder
	sb.WriteString(t.Header.Render(m.screen.Header()))
	sb.WriteString("\n")
	sb.WriteString(t.Label.Render("Author"))
	sb.WriteString("\n")
	sb.WriteString(box(m.focus == focusAuthor, m.author.View()))
	sb.WriteString("\n")
	sb.WriteString(t.Label.Render("Message"))
	sb.WriteString("\n")
	sb.WriteString(box(m.focus == focusMessage, m.message.render(textStyle, t.Cursor, m.focus == focusMessage)))
	sb.WriteString("\n")
	if m.saving {
		sb.WriteString(t.Help.Render(m.spinner.View() + " saving..."))
	} else {
		sb.WriteString(t.Help.Render(helpText))
	}
	sb.WriteString("\n")
	return sb.String()
}
