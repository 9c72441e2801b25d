package composer

// AuthorPlaceholder is the hint shown in the empty author input.
const AuthorPlaceholder = "First name"

// CompleteFunc receives the entered author and message. Returning false keeps
// the screen open.
type CompleteFunc func(author, message string) bool

// TextInput is the single-line author input.
type TextInput interface {
	Text() string
}

type Options struct {
	Header      string
	Placeholder string
	OnComplete  CompleteFunc
	// OnDismiss is called once when the screen closes.
	OnDismiss func()
}

// Screen is the modal form for composing a response.
type Screen struct {
	header     string
	author     TextInput
	message    *Field
	onComplete CompleteFunc
	onDismiss  func()
	dismissed  bool
}

func NewScreen(opts Options, author TextInput, message TextView) *Screen {
	return &Screen{
		header:     opts.Header,
		author:     author,
		message:    NewField(message, opts.Placeholder),
		onComplete: opts.OnComplete,
		onDismiss:  opts.OnDismiss,
	}
}

func (s *Screen) Header() string { return s.header }

// Message is the placeholder-emulating message field.
func (s *Screen) Message() *Field { return s.message }

func (s *Screen) Dismissed() bool { return s.dismissed }

// Save hands the form to OnComplete and dismisses the screen when it is
// accepted. It reports whether the screen was dismissed.
func (s *Screen) Save() bool {
	if s.dismissed || s.onComplete == nil {
		return false
	}
	return s.Resolve(s.onComplete(s.Submission()))
}

// Submission is the author and message Save passes to OnComplete. The message
// is empty while the placeholder shows.
func (s *Screen) Submission() (author, message string) {
	return s.author.Text(), s.message.Message()
}

// Resolve finishes a save whose OnComplete ran outside Save, such as on
// another goroutine. An accepted save dismisses the screen; a refused one
// leaves it as it was. It reports whether the screen was dismissed.
func (s *Screen) Resolve(accepted bool) bool {
	if s.dismissed || !accepted {
		return false
	}
	s.Cancel()
	return true
}

// OnComplete returns the completion callback the screen was built with.
func (s *Screen) OnComplete() CompleteFunc { return s.onComplete }

// Cancel dismisses the screen without saving.
func (s *Screen) Cancel() {
	if s.dismissed {
		return
	}
	s.dismissed = true
	if s.onDismiss != nil {
		s.onDismiss()
	}
}
