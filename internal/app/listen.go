package app

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/settings"
	"github.com/hyperifyio/gosummarize/internal/speech"
)

// Listen reads text aloud with the stored voice settings and blocks until
// playback ends. Each line on the input toggles pause and resume; on pause
// the text is printed with the last spoken word in brackets. Cancelling ctx
// stops playback.
func (a *App) Listen(ctx context.Context, text string) error {
	s, err := a.Settings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("using default voice settings")
		s = settings.Defaults()
	}
	a.session.SetResult(text)

	p := a.session.Player
	p.Options = speech.Options{Rate: s.TTSRate, Pitch: s.TTSPitch, Voice: s.TTSVoice}
	tokens := speech.Tokenize(text)
	var last atomic.Int64
	last.Store(-1)
	p.OnWord = func(charIndex int) {
		idx := speech.WordAt(tokens, charIndex)
		if idx < 0 {
			return
		}
		last.Store(int64(idx))
		log.Debug().Str("word", tokens[idx].Text).Int("char", charIndex).Msg("speaking")
	}

	// drop notifications left over from earlier playback
	select {
	case <-a.idle:
	default:
	}
	if _, err := a.session.Listen(); err != nil {
		return err
	}
	fmt.Fprintln(a.prompt, "Press Enter to pause or resume, Ctrl-C to stop.")

	done := make(chan struct{})
	defer close(done)
	lines := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(a.input)
		for sc.Scan() {
			select {
			case lines <- struct{}{}:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if err := p.Stop(); err != nil {
				log.Debug().Err(err).Msg("stop speech")
			}
			return nil
		case <-a.idle:
			return nil
		case <-lines:
			st, err := a.session.Listen()
			if err != nil {
				return err
			}
			if st == speech.Paused {
				fmt.Fprintln(a.prompt, speech.Highlight(tokens, int(last.Load()), "[", "]"))
			}
			fmt.Fprintf(a.prompt, "%s (press Enter to %s)\n", st, strings.ToLower(p.Label()))
		}
	}
}
