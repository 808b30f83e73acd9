package summarize

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/llm"
)

const (
	// MinTextChars is the shortest input worth sending to the model.
	MinTextChars = 30
	// MaxAttempts includes the first call.
	MaxAttempts = 4
	// RetryDelay is the fixed pause between attempts.
	RetryDelay = 500 * time.Millisecond
	// DefaultAttemptTimeout bounds one remote call.
	DefaultAttemptTimeout = 30 * time.Second
)

var errEmptyPayload = errors.New("empty payload")

// Summarizer turns text into a summary through a Generator with a fixed
// four-attempt retry. At most one Summarize runs at a time per Summarizer.
type Summarizer struct {
	Generator llm.Generator
	// AttemptTimeout bounds each remote call. Zero leaves attempts bounded
	// only by the caller's context.
	AttemptTimeout time.Duration
	// Sleep waits between attempts. Nil uses a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error

	busy atomic.Bool
}

// New returns a Summarizer with the default attempt timeout.
func New(gen llm.Generator) *Summarizer {
	return &Summarizer{Generator: gen, AttemptTimeout: DefaultAttemptTimeout}
}

// Summarize returns the trimmed model output for text in the given mode.
//
// Inputs shorter than MinTextChars fail with ErrInsufficientText before any
// remote call. A rejected credential fails at once with
// ErrInvalidCredential. Errors, timeouts and empty payloads are retried
// after RetryDelay until MaxAttempts calls have been made, then the call
// fails with ErrServiceBusy.
func (s *Summarizer) Summarize(ctx context.Context, text string, mode Mode) (string, error) {
	if utf8.RuneCountInString(text) < MinTextChars {
		return "", ErrInsufficientText
	}
	if s.Generator == nil {
		return "", errors.New("summarizer not configured")
	}
	if !s.busy.CompareAndSwap(false, true) {
		return "", ErrInFlight
	}
	defer s.busy.Store(false)

	prompt := BuildPrompt(mode, text)
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		out, err := s.attempt(ctx, prompt)
		if errors.Is(err, llm.ErrInvalidCredential) {
			return "", newError(ErrInvalidCredential, err)
		}
		if err == nil {
			if trimmed := strings.TrimSpace(out); trimmed != "" {
				log.Debug().Int("attempt", attempt).Int("chars", len(trimmed)).Msg("summary received")
				return trimmed, nil
			}
			err = errEmptyPayload
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("summarize attempt failed")
		if attempt == MaxAttempts {
			break
		}
		if err := s.sleep(ctx, RetryDelay); err != nil {
			return "", err
		}
	}
	log.Warn().Err(lastErr).Int("attempts", MaxAttempts).Msg("giving up on summary")
	return "", newError(ErrServiceBusy, lastErr)
}

func (s *Summarizer) attempt(ctx context.Context, prompt string) (string, error) {
	if s.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AttemptTimeout)
		defer cancel()
	}
	return s.Generator.Generate(ctx, prompt)
}

func (s *Summarizer) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
