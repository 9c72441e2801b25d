package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"postboard/composer"
)

// messageBuffer is a bare multi-line text widget. It has no placeholder of
// its own, so composer.Field drives it through the composer.TextView methods.
type messageBuffer struct {
	text   []rune
	cursor int
	style  composer.Style
	// onSelect is told about every cursor move, including the ones made by
	// SetText and SelectBeginning.
	onSelect func()
}

func (b *messageBuffer) Text() string { return string(b.text) }

func (b *messageBuffer) SetText(text string) {
	b.text = []rune(text)
	b.moveTo(len(b.text))
}

func (b *messageBuffer) SetStyle(style composer.Style) { b.style = style }

func (b *messageBuffer) SelectBeginning() { b.moveTo(0) }

func (b *messageBuffer) moveTo(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.text) {
		pos = len(b.text)
	}
	b.cursor = pos
	if b.onSelect != nil {
		b.onSelect()
	}
}

// replace swaps the runes in r for text and leaves the cursor after it.
func (b *messageBuffer) replace(r composer.Range, text string) {
	start := min(max(r.Location, 0), len(b.text))
	end := min(start+max(r.Length, 0), len(b.text))

	out := make([]rune, 0, len(b.text)-(end-start)+len(text))
	out = append(out, b.text[:start]...)
	out = append(out, []rune(text)...)
	out = append(out, b.text[end:]...)
	b.text = out
	b.moveTo(start + len([]rune(text)))
}

func (b *messageBuffer) render(text, cursor lipgloss.Style, showCursor bool) string {
	if !showCursor {
		return text.Render(string(b.text))
	}

	var sb strings.Builder
	sb.WriteString(text.Render(string(b.text[:b.cursor])))
	switch {
	case b.cursor == len(b.text):
		sb.WriteString(cursor.Render(" "))
	case b.text[b.cursor] == '\n':
		sb.WriteString(cursor.Render(" "))
		sb.WriteString("\n")
		sb.WriteString(text.Render(string(b.text[b.cursor+1:])))
	default:
		sb.WriteString(cursor.Render(string(b.text[b.cursor])))
		sb.WriteString(text.Render(string(b.text[b.cursor+1:])))
	}
	return sb.String()
}
