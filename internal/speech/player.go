package speech

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// State is the playback state of a Player.
type State int

const (
	Idle State = iota
	Speaking
	Paused
)

func (s State) String() string {
	switch s {
	case Speaking:
		return "speaking"
	case Paused:
		return "paused"
	}
	return "idle"
}

// ErrNothingToSpeak is returned when Toggle is asked to start on blank text.
var ErrNothingToSpeak = errors.New("nothing to read aloud")

// Player drives a Speaker through Idle, Speaking and Paused. Events from an
// utterance that was stopped or replaced are ignored.
type Player struct {
	Speaker Speaker
	Options Options
	// OnWord, when set, receives the character offset of each spoken word.
	OnWord func(charIndex int)
	// OnState, when set, receives every state change.
	OnState func(State)

	mu    sync.Mutex
	state State
	gen   int
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Label is the action a toggle would perform next.
func (p *Player) Label() string {
	switch p.State() {
	case Speaking:
		return "Pause"
	case Paused:
		return "Resume"
	}
	return "Listen"
}

func (p *Player) setLocked(s State) {
	p.state = s
	if p.OnState != nil {
		p.OnState(s)
	}
}

// Toggle starts reading text when idle, pauses while speaking and resumes
// when paused. It returns the resulting state.
func (p *Player) Toggle(text string) (State, error) {
	p.mu.Lock()
	switch p.state {
	case Speaking:
		p.mu.Unlock()
		if err := p.Speaker.Pause(); err != nil {
			return p.State(), err
		}
		return p.transition(Speaking, Paused), nil
	case Paused:
		p.mu.Unlock()
		if err := p.Speaker.Resume(); err != nil {
			return p.State(), err
		}
		return p.transition(Paused, Speaking), nil
	}
	if strings.TrimSpace(text) == "" {
		p.mu.Unlock()
		return Idle, ErrNothingToSpeak
	}
	p.gen++
	gen := p.gen
	p.setLocked(Speaking)
	p.mu.Unlock()

	if err := p.Speaker.Speak(text, p.Options, p.handler(gen)); err != nil {
		p.mu.Lock()
		if p.gen == gen {
			p.setLocked(Idle)
		}
		p.mu.Unlock()
		return Idle, err
	}
	return p.State(), nil
}

// transition moves from one state to another unless something else changed
// the state in between.
func (p *Player) transition(from, to State) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == from {
		p.setLocked(to)
	}
	return p.state
}

// Stop cancels any active utterance and returns to Idle.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.state == Idle {
		p.mu.Unlock()
		return nil
	}
	p.gen++
	p.setLocked(Idle)
	p.mu.Unlock()
	return p.Speaker.Stop()
}

func (p *Player) handler(gen int) func(Event) {
	return func(ev Event) {
		p.mu.Lock()
		if p.gen != gen {
			p.mu.Unlock()
			return
		}
		var onWord func(int)
		switch ev.Type {
		case EventWord:
			onWord = p.OnWord
		case EventEnd, EventInterrupted:
			p.setLocked(Idle)
		case EventError:
			log.Warn().Err(ev.Err).Msg("speech engine error")
			p.setLocked(Idle)
		}
		p.mu.Unlock()
		if onWord != nil {
			onWord(ev.CharIndex)
		}
	}
}
