package session

import (
	"errors"
	"testing"

	"github.com/hyperifyio/gosummarize/internal/speech"
)

type fakeClipboard struct {
	got string
	err error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.got = text
	return nil
}

type fakeSpeaker struct {
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(text string, _ speech.Options, _ func(speech.Event)) error {
	f.spoken = append(f.spoken, text)
	return nil
}
func (f *fakeSpeaker) Pause() error  { return nil }
func (f *fakeSpeaker) Resume() error { return nil }
func (f *fakeSpeaker) Stop() error   { f.stops++; return nil }

func TestCopy_FallsBackToInstruction(t *testing.T) {
	cb := &fakeClipboard{}
	s := New(cb, nil)
	got, err := s.Copy()
	if err != nil {
		t.Fatal(err)
	}
	if got != InitialInstruction || cb.got != InitialInstruction {
		t.Fatalf("copied %q", cb.got)
	}
	s.SetResult("- a point")
	if _, err := s.Copy(); err != nil || cb.got != "- a point" {
		t.Fatalf("copied %q err=%v", cb.got, err)
	}
}

func TestCopy_ReportsClipboardFailure(t *testing.T) {
	s := New(&fakeClipboard{err: errors.New("no display")}, nil)
	if _, err := s.Copy(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewResultStopsPlayback(t *testing.T) {
	sp := &fakeSpeaker{}
	p := &speech.Player{Speaker: sp}
	s := New(&fakeClipboard{}, p)

	if _, err := s.Listen(); !errors.Is(err, speech.ErrNothingToSpeak) {
		t.Fatalf("listen without summary: %v", err)
	}
	s.SetResult("first summary")
	if st, err := s.Listen(); err != nil || st != speech.Speaking {
		t.Fatalf("listen: %v %v", st, err)
	}
	s.SetResult("second summary")
	if p.State() != speech.Idle || sp.stops != 1 {
		t.Fatalf("playback not stopped: %v stops=%d", p.State(), sp.stops)
	}
	s.SetError(errors.New("Server busy. Try again."))
	if s.Display() != "Server busy. Try again." || s.Summary() != "" {
		t.Fatalf("display = %q", s.Display())
	}
	s.Reset()
	if s.Display() != InitialInstruction {
		t.Fatalf("display = %q", s.Display())
	}
}
