package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/browser"
	"github.com/hyperifyio/gosummarize/internal/fetch"
	"github.com/hyperifyio/gosummarize/internal/history"
	"github.com/hyperifyio/gosummarize/internal/llm"
	"github.com/hyperifyio/gosummarize/internal/session"
	"github.com/hyperifyio/gosummarize/internal/settings"
	"github.com/hyperifyio/gosummarize/internal/speech"
	"github.com/hyperifyio/gosummarize/internal/store"
	"github.com/hyperifyio/gosummarize/internal/summarize"
)

// Storage keys outside the history and settings packages.
const (
	credentialKey = "geminiApiKey"
	onboardedKey  = "onboarded"
)

var (
	// ErrMissingKey is returned when no credential is stored or configured.
	ErrMissingKey = errors.New("API key is missing. Run `gosummarize key set <key>`.")
	// ErrInvalidKey is returned when key validation rejects a credential.
	ErrInvalidKey = errors.New("Invalid API key. Please check the key and try again.")
)

// Options are collaborators New would otherwise build itself.
type Options struct {
	HTTPClient  *http.Client
	Clipboard   session.Clipboard
	Speaker     speech.Speaker
	OpenBrowser func() (LivePage, error)
	// Input is read for interactive confirmations; Prompt receives the
	// prompts. Default to stdin and stderr.
	Input  io.Reader
	Prompt io.Writer
}

type App struct {
	cfg        Config
	stores     store.Stores
	history    *history.Store
	summarizer *summarize.Summarizer
	session    *session.Session
	fetcher    *fetch.Client
	blocked    *Blocklist
	httpClient *http.Client

	openBrowser func() (LivePage, error)
	input       io.Reader
	prompt      io.Writer
	idle        chan struct{}
}

// Result is a finished summarization.
type Result struct {
	Summary  string
	Material Material
	// Record is nil when the history append failed.
	Record *history.Record
}

func New(ctx context.Context, cfg Config, opts Options) (*App, error) {
	cfg = cfg.withDefaults()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	blocked, err := NewBlocklist(cfg.BlockedPatterns)
	if err != nil {
		return nil, err
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient()
	}
	a := &App{
		cfg:        cfg,
		stores:     store.Open(cfg.DataDir, cfg.StrictPerms),
		blocked:    blocked,
		httpClient: hc,
		fetcher: &fetch.Client{
			HTTPClient:        hc,
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       2,
			PerRequestTimeout: 15 * time.Second,
			RedirectMaxHops:   5,
		},
		openBrowser: opts.OpenBrowser,
		input:       opts.Input,
		prompt:      opts.Prompt,
		idle:        make(chan struct{}, 1),
	}
	if a.input == nil {
		a.input = os.Stdin
	}
	if a.prompt == nil {
		a.prompt = os.Stderr
	}
	if a.openBrowser == nil {
		a.openBrowser = func() (LivePage, error) { return browser.Launch(browser.Options{Install: true}) }
	}
	a.history = history.NewStore(a.stores.Local)
	a.summarizer = &summarize.Summarizer{Generator: keyedGenerator{a}, AttemptTimeout: cfg.AttemptTimeout}

	sp := opts.Speaker
	if sp == nil {
		sp = &speech.ExecSpeaker{Command: cfg.TTSCommand}
	}
	player := &speech.Player{Speaker: sp}
	player.OnState = func(s speech.State) {
		if s != speech.Idle {
			return
		}
		select {
		case a.idle <- struct{}{}:
		default:
		}
	}
	cb := opts.Clipboard
	if cb == nil {
		cb = session.SystemClipboard{}
	}
	a.session = session.New(cb, player)

	a.onboard(ctx)
	return a, nil
}

func (a *App) Close() {
	_ = a.session.Player.Stop()
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// History exposes the summary log.
func (a *App) History() *history.Store { return a.history }

// Session exposes the display state.
func (a *App) Session() *session.Session { return a.session }

// onboard logs a one-time hint when no credential exists yet.
func (a *App) onboard(ctx context.Context) {
	var done bool
	if _, err := a.stores.Local.Get(ctx, onboardedKey, &done); err != nil || done {
		return
	}
	if _, err := a.apiKey(ctx); errors.Is(err, ErrMissingKey) {
		log.Info().Msg("Welcome to gosummarize. Run `gosummarize key set <key>` with a Gemini API key to get started.")
	}
	if err := a.stores.Local.Set(ctx, onboardedKey, true); err != nil {
		log.Debug().Err(err).Msg("record onboarding")
	}
}

// apiKey returns the configured key, else the stored one.
func (a *App) apiKey(ctx context.Context) (string, error) {
	if k := strings.TrimSpace(a.cfg.LLMAPIKey); k != "" {
		return k, nil
	}
	var k string
	if _, err := a.stores.Sync.Get(ctx, credentialKey, &k); err != nil {
		return "", fmt.Errorf("load key: %w", err)
	}
	if strings.TrimSpace(k) == "" {
		return "", ErrMissingKey
	}
	return k, nil
}

func (a *App) backendFor(key string) (llm.Backend, error) {
	return llm.New(llm.Options{
		Provider:   a.cfg.Provider,
		BaseURL:    a.cfg.LLMBaseURL,
		Model:      a.cfg.LLMModel,
		APIKey:     key,
		HTTPClient: a.httpClient,
	})
}

// keyedGenerator resolves the credential on every attempt so a key set in
// between is picked up.
type keyedGenerator struct{ a *App }

func (g keyedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key, err := g.a.apiKey(ctx)
	if err != nil {
		return "", err
	}
	b, err := g.a.backendFor(key)
	if err != nil {
		return "", err
	}
	return b.Generate(ctx, prompt)
}

// Summarize stops any playback, reads src and summarizes it in mode. The
// result is shown in the session and appended to history; a history
// failure is logged and does not fail the call.
func (a *App) Summarize(ctx context.Context, src Source, mode string) (Result, error) {
	a.session.Reset()
	if _, err := a.apiKey(ctx); err != nil {
		a.session.SetError(err)
		return Result{}, err
	}
	mat, err := a.Read(ctx, src)
	if err != nil {
		a.session.SetError(err)
		return Result{}, err
	}
	if mode == "" {
		mode = a.cfg.Mode
	}
	m := summarize.ParseMode(mode)
	log.Info().Str("source", mat.Hint).Str("strategy", mat.Strategy).Str("mode", string(m)).Msgf("Summarizing %s...", mat.Hint)

	out, err := a.summarizer.Summarize(ctx, mat.Text, m)
	if err != nil {
		a.session.SetError(err)
		return Result{Material: mat}, err
	}
	a.session.SetResult(out)
	res := Result{Summary: out, Material: mat}
	rec, err := a.history.Append(ctx, mat.Title, out)
	if err != nil {
		log.Warn().Err(err).Msg("could not save summary to history")
		return res, nil
	}
	res.Record = &rec
	return res, nil
}

// View loads the history record at display index i as the current summary.
func (a *App) View(ctx context.Context, i int) (history.Record, error) {
	rec, err := a.history.Get(ctx, i)
	if err != nil {
		return history.Record{}, err
	}
	a.session.SetResult(rec.Summary)
	return rec, nil
}

// Copy puts the current display on the clipboard.
func (a *App) Copy() (string, error) {
	return a.session.Copy()
}

// SetKey validates key against the remote API and stores it.
func (a *App) SetKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingKey
	}
	ok, err := a.validate(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidKey
	}
	if err := a.stores.Sync.Set(ctx, credentialKey, key); err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	log.Info().Msg("API key saved")
	return nil
}

// CheckKey re-validates the effective credential.
func (a *App) CheckKey(ctx context.Context) error {
	key, err := a.apiKey(ctx)
	if err != nil {
		return err
	}
	ok, err := a.validate(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidKey
	}
	return nil
}

// ClearKey removes the stored credential.
func (a *App) ClearKey(ctx context.Context) error {
	return a.stores.Sync.Delete(ctx, credentialKey)
}

func (a *App) validate(ctx context.Context, key string) (bool, error) {
	b, err := a.backendFor(key)
	if err != nil {
		return false, err
	}
	ok, err := b.ValidateKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("validate key: %w", err)
	}
	return ok, nil
}

// Settings returns the stored preferences.
func (a *App) Settings(ctx context.Context) (settings.Settings, error) {
	return settings.Load(ctx, a.stores.Local)
}

// SetSetting updates one preference and returns the result.
func (a *App) SetSetting(ctx context.Context, name, value string) (settings.Settings, error) {
	s, err := a.Settings(ctx)
	if err != nil {
		return s, err
	}
	if err := s.Set(name, value); err != nil {
		return s, err
	}
	return s, settings.Save(ctx, a.stores.Local, s)
}
