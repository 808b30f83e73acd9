package summarize

// Kind classifies a summarization failure.
type Kind int

const (
	KindInsufficientText Kind = iota + 1
	KindInvalidCredential
	KindServiceBusy
	KindInFlight
)

// Error is a summarization failure carrying a message fit to show the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInsufficientText  = &Error{Kind: KindInsufficientText, Message: "Not enough text. Select more or ensure a key article element exists."}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "Invalid API key. Please check your settings (gosummarize key set)."}
	ErrServiceBusy       = &Error{Kind: KindServiceBusy, Message: "Server busy. Try again."}
	ErrInFlight          = &Error{Kind: KindInFlight, Message: "A summary is already being generated."}
)

func newError(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Err: cause}
}
