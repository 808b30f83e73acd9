// Package session holds the state of one interactive run: the text on
// display, playback and the clipboard.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/hyperifyio/gosummarize/internal/speech"
)

// InitialInstruction is shown before any summary exists.
const InitialInstruction = "Select the summary and click summarize."

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Session tracks what is on display. Displaying new text or an error stops
// any playback of the previous text.
type Session struct {
	Clipboard Clipboard
	Player    *speech.Player

	mu      sync.Mutex
	summary string
	message string
}

// New returns a Session showing InitialInstruction.
func New(cb Clipboard, player *speech.Player) *Session {
	return &Session{Clipboard: cb, Player: player}
}

func (s *Session) stopPlayback() {
	if s.Player != nil {
		_ = s.Player.Stop()
	}
}

// SetResult displays a finished summary.
func (s *Session) SetResult(summary string) {
	s.stopPlayback()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.message = ""
}

// SetError replaces the display with a user-facing error message.
func (s *Session) SetError(err error) {
	s.stopPlayback()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = ""
	s.message = err.Error()
}

// Reset returns to the initial instruction.
func (s *Session) Reset() {
	s.stopPlayback()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = ""
	s.message = ""
}

// Summary is the displayed summary, empty when none.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Display is what the user currently sees.
func (s *Session) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.summary != "":
		return s.summary
	case s.message != "":
		return s.message
	}
	return InitialInstruction
}

// Copy puts the displayed text on the clipboard and returns it.
func (s *Session) Copy() (string, error) {
	text := s.Display()
	if s.Clipboard == nil {
		return "", fmt.Errorf("copy: no clipboard available")
	}
	if err := s.Clipboard.WriteAll(text); err != nil {
		return "", fmt.Errorf("copy: %w", err)
	}
	return text, nil
}

// Listen toggles playback of the displayed summary.
func (s *Session) Listen() (speech.State, error) {
	if s.Player == nil {
		return speech.Idle, fmt.Errorf("listen: no speech engine configured")
	}
	text := s.Summary()
	if strings.TrimSpace(text) == "" {
		return s.Player.State(), speech.ErrNothingToSpeak
	}
	return s.Player.Toggle(text)
}
