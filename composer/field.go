package composer

// TextView is the multi-line text widget the Field drives. SelectBeginning may
// synchronously report a SelectionChanged back to the Field.
type TextView interface {
	Text() string
	SetText(text string)
	SetStyle(style Style)
	SelectBeginning()
}

// Field emulates placeholder text on a TextView that has none.
type Field struct {
	view        TextView
	placeholder string
	mode        Mode
	reselecting bool
}

// NewField puts view into Placeholder mode.
func NewField(view TextView, placeholder string) *Field {
	f := &Field{view: view, placeholder: placeholder}
	f.apply(Outcome{Mode: Placeholder, Effects: []Effect{ShowPlaceholder}})
	return f
}

func (f *Field) Mode() Mode { return f.mode }

func (f *Field) Placeholder() string { return f.placeholder }

// Message is what the user actually entered: empty while the placeholder shows.
func (f *Field) Message() string {
	if f.mode == Placeholder {
		return ""
	}
	return f.view.Text()
}

// Handle runs one event through the state machine and applies its effects.
// The caller applies an allowed ContentChange at the returned Outcome.Edit.
func (f *Field) Handle(ev Event) Outcome {
	if _, ok := ev.(SelectionChanged); ok && f.reselecting {
		return Outcome{Mode: f.mode, Allow: true}
	}
	out := Next(f.mode, f.view.Text(), ev)
	f.apply(out)
	return out
}

func (f *Field) apply(out Outcome) {
	f.mode = out.Mode
	for _, effect := range out.Effects {
		switch effect {
		case ShowPlaceholder:
			f.view.SetText(f.placeholder)
			f.view.SetStyle(Dimmed)
			f.reselect()
		case ClearText:
			f.view.SetText("")
		case NormalStyle:
			f.view.SetStyle(Normal)
		case SelectBeginning:
			f.reselect()
		}
	}
}

// reselect moves the cursor to the start as one step. Selection events raised
// while it runs are ignored.
func (f *Field) reselect() {
	if f.reselecting {
		return
	}
	f.reselecting = true
	defer func() { f.reselecting = false }()
	f.view.SelectBeginning()
}
