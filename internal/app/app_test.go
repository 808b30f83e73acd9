package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/gosummarize/internal/extract"
	"github.com/hyperifyio/gosummarize/internal/history"
	"github.com/hyperifyio/gosummarize/internal/session"
	"github.com/hyperifyio/gosummarize/internal/speech"
	"github.com/hyperifyio/gosummarize/internal/summarize"
)

const article = "Go 1.22 changes loop variable semantics so each iteration gets a fresh variable, removing a common source of bugs in closures."

// geminiStub answers generateContent with replies in order (repeating the
// last) for goodKey and rejects any other key the way the real API does.
type geminiStub struct {
	goodKey string
	replies []string

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (s *geminiStub) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		key := r.URL.Query().Get("key")
		if key != s.goodKey {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
			return
		}
		if strings.HasSuffix(r.URL.Path, ":generateContent") {
			var req struct {
				Contents []struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"contents"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			s.mu.Lock()
			i := s.calls
			if i >= len(s.replies) {
				i = len(s.replies) - 1
			}
			s.calls++
			if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
				s.prompts = append(s.prompts, req.Contents[0].Parts[0].Text)
			}
			reply := s.replies[i]
			s.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": reply}}}}},
			})
			return
		}
		if strings.HasSuffix(r.URL.Path, "/models") {
			_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.5-flash"}]}`))
			return
		}
		http.NotFound(w, r)
	})
}

func (s *geminiStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeClipboard struct{ got string }

func (f *fakeClipboard) WriteAll(text string) error { f.got = text; return nil }

// endingSpeaker plays instantly: start, one word per token start, end.
type endingSpeaker struct {
	mu     sync.Mutex
	spoken []string
	opts   speech.Options
}

func (s *endingSpeaker) Speak(text string, opts speech.Options, onEvent func(speech.Event)) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.opts = opts
	s.mu.Unlock()
	go func() {
		onEvent(speech.Event{Type: speech.EventStart})
		onEvent(speech.Event{Type: speech.EventWord, CharIndex: 0})
		time.Sleep(10 * time.Millisecond)
		onEvent(speech.Event{Type: speech.EventEnd})
	}()
	return nil
}
func (s *endingSpeaker) Pause() error  { return nil }
func (s *endingSpeaker) Resume() error { return nil }
func (s *endingSpeaker) Stop() error   { return nil }

type testEnv struct {
	app  *App
	stub *geminiStub
	clip *fakeClipboard
	sp   *endingSpeaker
}

func newTestEnv(t *testing.T, cfg Config, replies ...string) *testEnv {
	t.Helper()
	if len(replies) == 0 {
		replies = []string{"- point one\n- point two"}
	}
	stub := &geminiStub{goodKey: "good-key", replies: replies}
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	cfg.LLMBaseURL = srv.URL
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	env := &testEnv{stub: stub, clip: &fakeClipboard{}, sp: &endingSpeaker{}}
	a, err := New(context.Background(), cfg, Options{
		HTTPClient: srv.Client(),
		Clipboard:  env.clip,
		Speaker:    env.sp,
		Input:      strings.NewReader(""),
		Prompt:     io.Discard,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	a.summarizer.Sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(a.Close)
	env.app = a
	return env
}

func TestSummarize_MissingKey(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, err := env.app.Summarize(context.Background(), Source{Text: article}, "brief")
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if env.stub.callCount() != 0 {
		t.Fatalf("no remote call expected")
	}
	if env.app.Session().Display() != ErrMissingKey.Error() {
		t.Fatalf("display = %q", env.app.Session().Display())
	}
}

func TestSetKey_ValidatesBeforeStoring(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	if err := env.app.SetKey(ctx, "wrong"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := env.app.CheckKey(ctx); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("rejected key must not be stored: %v", err)
	}
	if err := env.app.SetKey(ctx, " good-key "); err != nil {
		t.Fatalf("set key: %v", err)
	}
	if err := env.app.CheckKey(ctx); err != nil {
		t.Fatalf("check key: %v", err)
	}
	if err := env.app.ClearKey(ctx); err != nil {
		t.Fatalf("clear key: %v", err)
	}
	if err := env.app.CheckKey(ctx); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("after clear: %v", err)
	}
}

func TestSummarize_PastedTextEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{}, "", "  - first point\n- second point \n")
	if err := env.app.SetKey(ctx, "good-key"); err != nil {
		t.Fatal(err)
	}
	res, err := env.app.Summarize(ctx, Source{Text: article}, "brief")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.Summary != "- first point\n- second point" {
		t.Fatalf("summary = %q", res.Summary)
	}
	if env.stub.callCount() != 2 {
		t.Fatalf("calls = %d, want 2 (one empty reply retried)", env.stub.callCount())
	}
	if !strings.HasPrefix(env.stub.prompts[0], summarize.ModeBrief.Instruction()) {
		t.Fatalf("prompt does not start with the brief instruction")
	}
	if res.Material.Hint != "pasted text" {
		t.Fatalf("hint = %q", res.Material.Hint)
	}
	if res.Record == nil || res.Record.Title != history.TruncateTitle(article) {
		t.Fatalf("record = %+v", res.Record)
	}
	list, err := env.app.History().ListForDisplay(ctx)
	if err != nil || len(list) != 1 || list[0].Summary != res.Summary {
		t.Fatalf("history = %+v err=%v", list, err)
	}
	if env.app.Session().Display() != res.Summary {
		t.Fatalf("display = %q", env.app.Session().Display())
	}
	copied, err := env.app.Copy()
	if err != nil || copied != res.Summary || env.clip.got != res.Summary {
		t.Fatalf("copy = %q err=%v", env.clip.got, err)
	}
}

func TestSummarize_FileSourceUsesPageTitleAndArticle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{LLMAPIKey: "good-key"})
	page := filepath.Join(t.TempDir(), "page.html")
	html := "<html><head><title>Loop Semantics</title></head><body><nav>menu</nav><article><p>" + article + "</p></article></body></html>"
	if err := os.WriteFile(page, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := env.app.Summarize(ctx, Source{File: page}, "")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.Material.Title != "Loop Semantics" || res.Material.Strategy != "article" {
		t.Fatalf("material = %+v", res.Material)
	}
	if res.Material.Hint != "selected text" {
		t.Fatalf("short page text should be reported as a selection, got %q", res.Material.Hint)
	}
	if !strings.HasPrefix(env.stub.prompts[0], summarize.ModeBullets.Instruction()) {
		t.Fatalf("default mode should be bullets")
	}
	if !strings.HasSuffix(env.stub.prompts[0], article) {
		t.Fatalf("prompt should end with the article text")
	}
}

func TestSummarize_BlockedURL(t *testing.T) {
	env := newTestEnv(t, Config{LLMAPIKey: "good-key"})
	for _, u := range []string{"chrome://settings", "CHROME-EXTENSION://abc/popup.html", "about:blank"} {
		_, err := env.app.Summarize(context.Background(), Source{URL: u}, "")
		if !errors.Is(err, ErrBlockedURL) {
			t.Fatalf("%s: expected ErrBlockedURL, got %v", u, err)
		}
	}
	if env.stub.callCount() != 0 {
		t.Fatalf("no remote call expected")
	}
}

func TestSummarize_RemoteRejectsKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{LLMAPIKey: "revoked"})
	_, err := env.app.Summarize(ctx, Source{Text: article}, "detailed")
	if !errors.Is(err, summarize.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	list, _ := env.app.History().List(ctx)
	if len(list) != 0 {
		t.Fatalf("failed summaries must not be saved")
	}
}

func TestSummarize_ServiceBusy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{LLMAPIKey: "good-key"}, "")
	_, err := env.app.Summarize(ctx, Source{Text: article}, "bullets")
	if !errors.Is(err, summarize.ErrServiceBusy) {
		t.Fatalf("expected ErrServiceBusy, got %v", err)
	}
	if env.stub.callCount() != summarize.MaxAttempts {
		t.Fatalf("calls = %d", env.stub.callCount())
	}
	if env.app.Session().Display() != "Server busy. Try again." {
		t.Fatalf("display = %q", env.app.Session().Display())
	}
}

func TestSummarize_ShortTextNeverCallsRemote(t *testing.T) {
	env := newTestEnv(t, Config{LLMAPIKey: "good-key"})
	_, err := env.app.Summarize(context.Background(), Source{Text: "too short"}, "")
	if !errors.Is(err, summarize.ErrInsufficientText) {
		t.Fatalf("expected ErrInsufficientText, got %v", err)
	}
	if env.stub.callCount() != 0 {
		t.Fatalf("calls = %d", env.stub.callCount())
	}
}

func TestSummarize_Stdin(t *testing.T) {
	env := newTestEnv(t, Config{LLMAPIKey: "good-key"})
	res, err := env.app.Summarize(context.Background(), Source{Stdin: strings.NewReader(article + "\n")}, "")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.Material.Hint != "pasted text" {
		t.Fatalf("hint = %q", res.Material.Hint)
	}
	if _, err := env.app.Read(context.Background(), Source{Stdin: strings.NewReader("  ")}); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

type fakeLivePage struct {
	opened string
	url    string
	page   extract.Page
	closed atomic.Bool
}

func (f *fakeLivePage) Open(u string) error            { f.opened = u; return nil }
func (f *fakeLivePage) URL() string                    { return f.url }
func (f *fakeLivePage) Capture() (extract.Page, error) { return f.page, nil }
func (f *fakeLivePage) Close() error                   { f.closed.Store(true); return nil }

func TestRead_BrowserSelection(t *testing.T) {
	live := &fakeLivePage{
		url: "https://example.com/post",
		page: extract.Page{
			HTML:      []byte("<html><body><article>" + article + "</article></body></html>"),
			Title:     "Example Post",
			Selection: "  the user selected this whole sentence  ",
		},
	}
	env := newTestEnv(t, Config{})
	env.app.openBrowser = func() (LivePage, error) { return live, nil }
	env.app.input = strings.NewReader("\n")

	mat, err := env.app.Read(context.Background(), Source{Browser: true, URL: "https://example.com/post"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mat.Text != "the user selected this whole sentence" || mat.Title != "Example Post" {
		t.Fatalf("material = %+v", mat)
	}
	if live.opened != "https://example.com/post" || !live.closed.Load() {
		t.Fatalf("page not opened and closed: %+v", live)
	}

	live.url = "chrome://newtab"
	env.app.input = strings.NewReader("\n")
	if _, err := env.app.Read(context.Background(), Source{Browser: true}); !errors.Is(err, ErrBlockedURL) {
		t.Fatalf("navigating to an internal page should block, got %v", err)
	}
}

func TestView_LoadsRecordIntoSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{LLMAPIKey: "good-key"})
	if _, err := env.app.Summarize(ctx, Source{Text: article}, ""); err != nil {
		t.Fatal(err)
	}
	env.app.Session().Reset()
	rec, err := env.app.View(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if env.app.Session().Display() != rec.Summary {
		t.Fatalf("display = %q", env.app.Session().Display())
	}
	if _, err := env.app.View(ctx, 5); !errors.Is(err, history.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestListen_UsesVoiceSettingsAndReturnsOnEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	if _, err := env.app.SetSetting(ctx, "tts-rate", "1.5"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.app.SetSetting(ctx, "tts-voice", "en-gb"); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- env.app.Listen(ctx, "Read this summary aloud.") }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("listen did not return after playback ended")
	}
	env.sp.mu.Lock()
	defer env.sp.mu.Unlock()
	if len(env.sp.spoken) != 1 || env.sp.opts.Rate != 1.5 || env.sp.opts.Voice != "en-gb" {
		t.Fatalf("spoken=%v opts=%+v", env.sp.spoken, env.sp.opts)
	}
	if env.app.Session().Player.State() != speech.Idle {
		t.Fatalf("state = %v", env.app.Session().Player.State())
	}
}

func TestNew_RecordsOnboarding(t *testing.T) {
	env := newTestEnv(t, Config{})
	var done bool
	if _, err := env.app.stores.Local.Get(context.Background(), onboardedKey, &done); err != nil || !done {
		t.Fatalf("onboarded = %v err=%v", done, err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Config{DataDir: t.TempDir(), Provider: "carrier-pigeon"}, Options{Clipboard: session.SystemClipboard{}})
	if err == nil {
		t.Fatalf("expected error")
	}
	_, err = New(context.Background(), Config{DataDir: t.TempDir(), BlockedPatterns: []string{"[unclosed"}}, Options{})
	if err == nil {
		t.Fatalf("expected bad glob error")
	}
}
