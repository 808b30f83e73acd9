package speech

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCommands are tried in order when no command is configured.
var DefaultCommands = []string{"espeak-ng", "espeak", "say"}

// ErrNoEngine is returned when no speech command can be found.
var ErrNoEngine = errors.New("speech: no speech command found (install espeak-ng or set TTS_COMMAND)")

const (
	baseWordsPerMinute = 175
	pacingTick         = 50 * time.Millisecond
)

// ExecSpeaker speaks through an external command fed on stdin. Word events
// are paced from the configured rate since command-line engines do not
// report boundaries.
type ExecSpeaker struct {
	// Command is the engine to run. Empty picks the first of DefaultCommands
	// found on PATH.
	Command string

	mu  sync.Mutex
	cur *utterance
}

type utterance struct {
	cmd     *exec.Cmd
	done    chan struct{}
	stopped atomic.Bool
	paused  atomic.Bool
}

func (s *ExecSpeaker) resolve() (string, error) {
	if s.Command != "" {
		return exec.LookPath(s.Command)
	}
	for _, c := range DefaultCommands {
		if p, err := exec.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", ErrNoEngine
}

func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	return int(float64(baseWordsPerMinute) * rate)
}

// engineArgs maps voice options onto the flags of known engines. Unknown
// commands get no flags and read the text from stdin.
func engineArgs(path string, opts Options) []string {
	wpm := strconv.Itoa(wordsPerMinute(opts.Rate))
	switch strings.TrimSuffix(filepath.Base(path), ".exe") {
	case "espeak", "espeak-ng":
		pitch := int(opts.Pitch * 50)
		if pitch < 0 {
			pitch = 0
		}
		if pitch > 99 {
			pitch = 99
		}
		args := []string{"-s", wpm, "-p", strconv.Itoa(pitch)}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		return append(args, "--stdin")
	case "say":
		args := []string{"-r", wpm}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		return append(args, "-f", "-")
	}
	return nil
}

// Speak starts the engine and returns once it is running. Any utterance
// still playing is stopped first.
func (s *ExecSpeaker) Speak(text string, opts Options, onEvent func(Event)) error {
	path, err := s.resolve()
	if err != nil {
		return err
	}
	_ = s.Stop()

	cmd := exec.Command(path, engineArgs(path, opts)...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", filepath.Base(path), err)
	}
	u := &utterance{cmd: cmd, done: make(chan struct{})}
	s.mu.Lock()
	s.cur = u
	s.mu.Unlock()
	log.Debug().Str("engine", filepath.Base(path)).Int("chars", len(text)).Msg("speech started")

	onEvent(Event{Type: EventStart})
	perWord := time.Minute / time.Duration(wordsPerMinute(opts.Rate))
	go u.pace(wordStarts(Tokenize(text)), perWord, onEvent)
	go func() {
		werr := cmd.Wait()
		close(u.done)
		s.mu.Lock()
		if s.cur == u {
			s.cur = nil
		}
		s.mu.Unlock()
		switch {
		case u.stopped.Load():
			onEvent(Event{Type: EventInterrupted})
		case werr != nil:
			onEvent(Event{Type: EventError, Err: werr})
		default:
			onEvent(Event{Type: EventEnd})
		}
	}()
	return nil
}

func (u *utterance) pace(starts []int, perWord time.Duration, onEvent func(Event)) {
	tick := time.NewTicker(pacingTick)
	defer tick.Stop()
	var elapsed time.Duration
	next := 0
	for next < len(starts) {
		select {
		case <-u.done:
			return
		case <-tick.C:
			if u.paused.Load() {
				continue
			}
			elapsed += pacingTick
			for next < len(starts) && elapsed >= time.Duration(next)*perWord {
				onEvent(Event{Type: EventWord, CharIndex: starts[next]})
				next++
			}
		}
	}
}

func (s *ExecSpeaker) current() *utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Pause suspends the running engine process.
func (s *ExecSpeaker) Pause() error {
	u := s.current()
	if u == nil {
		return nil
	}
	if err := pauseProcess(u.cmd.Process); err != nil {
		return err
	}
	u.paused.Store(true)
	return nil
}

// Resume continues a paused engine process.
func (s *ExecSpeaker) Resume() error {
	u := s.current()
	if u == nil {
		return nil
	}
	if err := resumeProcess(u.cmd.Process); err != nil {
		return err
	}
	u.paused.Store(false)
	return nil
}

// Stop kills the running engine, if any.
func (s *ExecSpeaker) Stop() error {
	u := s.current()
	if u == nil {
		return nil
	}
	u.stopped.Store(true)
	if err := u.cmd.Process.Kill(); err != nil {
		select {
		case <-u.done:
			return nil
		default:
			return fmt.Errorf("stop speech: %w", err)
		}
	}
	return nil
}
