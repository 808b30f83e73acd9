// Package speech reads summaries aloud and tracks playback state.
package speech

import "errors"

// EventType identifies a speech engine callback.
type EventType int

const (
	EventStart EventType = iota
	EventWord
	EventEnd
	EventInterrupted
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventWord:
		return "word"
	case EventEnd:
		return "end"
	case EventInterrupted:
		return "interrupted"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is reported by a Speaker while an utterance plays. CharIndex is
// set for EventWord and Err for EventError.
type Event struct {
	Type      EventType
	CharIndex int
	Err       error
}

// Options are the voice parameters of one utterance.
type Options struct {
	Rate  float64
	Pitch float64
	Voice string
}

// ErrPauseUnsupported is returned by speakers that cannot suspend playback.
var ErrPauseUnsupported = errors.New("speech: pause not supported on this platform")

// Speaker is a speech engine. Speak starts an utterance and returns without
// waiting for it to finish; onEvent may be called from other goroutines.
type Speaker interface {
	Speak(text string, opts Options, onEvent func(Event)) error
	Pause() error
	Resume() error
	Stop() error
}
