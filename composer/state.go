// Package composer models the "new response" form: an author input and a
// message input that shows placeholder text while it is logically empty.
//
// The placeholder behaviour is a two-mode state machine. Next is the pure
// transition function; Field drives it against a TextView owned by whatever
// toolkit renders the form.
package composer

import "unicode/utf8"

// Mode is the state of the message input.
type Mode int

const (
	// Placeholder shows the dimmed hint text with the cursor pinned to the start.
	Placeholder Mode = iota
	// Editing shows what the user typed.
	Editing
)

func (m Mode) String() string {
	switch m {
	case Placeholder:
		return "placeholder"
	case Editing:
		return "editing"
	}
	return "unknown"
}

// Style is the visual treatment of the message text.
type Style int

const (
	Dimmed Style = iota
	Normal
)

// Range addresses a span of the current text, counted in runes.
type Range struct {
	Location int
	Length   int
}

// Event is an input to the state machine.
type Event interface {
	event()
}

// ContentChange announces that Text is about to replace Range.
type ContentChange struct {
	Range Range
	Text  string
}

type FocusGained struct{}

type FocusLost struct{}

type SelectionChanged struct{}

func (ContentChange) event()    {}
func (FocusGained) event()      {}
func (FocusLost) event()        {}
func (SelectionChanged) event() {}

// Effect is a side effect the view has to perform, in order.
type Effect int

const (
	// ShowPlaceholder sets the text to the placeholder, dims it and moves the
	// cursor to the start.
	ShowPlaceholder Effect = iota + 1
	// ClearText empties the text.
	ClearText
	// NormalStyle switches to the regular text style.
	NormalStyle
	// SelectBeginning moves the cursor to the start.
	SelectBeginning
)

// Outcome is the result of one transition.
type Outcome struct {
	Mode    Mode
	Effects []Effect
	// Allow reports whether a ContentChange may be applied. It is true for
	// every other event.
	Allow bool
	// Edit is where an allowed ContentChange applies once Effects have run.
	Edit Range
}

// Next computes the transition for ev, given the current mode and the text
// currently displayed by the view.
func Next(mode Mode, current string, ev Event) Outcome {
	switch ev := ev.(type) {
	case ContentChange:
		length := utf8.RuneCountInString(current)
		clearsAll := ev.Range.Length > 0 && ev.Range.Length == length
		if ev.Text == "" && (clearsAll || mode == Placeholder) {
			return Outcome{Mode: Placeholder, Effects: []Effect{ShowPlaceholder}}
		}
		if mode == Placeholder {
			return Outcome{Mode: Editing, Effects: []Effect{ClearText, NormalStyle}, Allow: true}
		}
		return Outcome{Mode: Editing, Effects: []Effect{NormalStyle}, Allow: true, Edit: ev.Range}

	case FocusGained, SelectionChanged:
		if mode == Placeholder {
			return Outcome{Mode: mode, Effects: []Effect{SelectBeginning}, Allow: true}
		}

	case FocusLost:
		if current == "" {
			return Outcome{Mode: Placeholder, Effects: []Effect{ShowPlaceholder}, Allow: true}
		}
	}
	return Outcome{Mode: mode, Allow: true}
}
